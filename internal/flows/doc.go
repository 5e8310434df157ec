// Package flows contains the orchestration behind every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunAuthorize, ...) takes a typed
// dependency struct of function fields and returns a result carrying a
// failure kind. The engine maps kinds to public errors, metrics, and audit
// events, so flows stay free of those concerns and are testable with plain
// closures.
//
// Flows own no resources and hold no state between calls. They never import
// the root package.
package flows
