package screeny

import "fmt"

// JS snippets shared by both engines. Each is a zero-argument function
// expression; invokeScript turns one into an immediately-invoked statement
// for APIs that take raw script text.

// disableAnimationsScript collapses CSS animation and transition durations so
// captures are not taken mid-animation. Installed on every new document.
const disableAnimationsScript = `() => {
	const css = '*, *::before, *::after {' +
		'animation-duration: 0.01ms !important;' +
		'animation-delay: -0.01ms !important;' +
		'animation-iteration-count: 1 !important;' +
		'background-attachment: initial !important;' +
		'scroll-behavior: auto !important;' +
		'transition-duration: 0ms !important;' +
		'transition-delay: 0ms !important;' +
	'}';
	const inject = () => {
		const style = document.createElement('style');
		style.innerHTML = css;
		(document.head || document.documentElement).appendChild(style);
	};
	if (document.readyState === 'loading') {
		document.addEventListener('DOMContentLoaded', inject);
	} else {
		inject();
	}
}`

// scrollToTopScript returns the page to the top before the capture.
const scrollToTopScript = `() => { window.scrollTo(0, 0); }`

// scrollToBottomScript steps the viewport down the page to trigger
// lazy-loaded content, resolving once the bottom is reached.
func scrollToBottomScript(stepDelayMS int) string {
	return fmt.Sprintf(`() => new Promise(resolve => {
	const step = () => {
		window.scrollBy(0, window.innerHeight);
		if (window.scrollY + window.innerHeight < document.body.scrollHeight) {
			setTimeout(step, %d);
		} else {
			resolve();
		}
	};
	step();
})`, stepDelayMS)
}

// invokeScript wraps a function expression into an immediately-invoked call.
func invokeScript(fn string) string {
	return "(" + fn + ")();"
}
