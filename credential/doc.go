// Package credential provides TokenCredential implementations: a pre-issued
// token read from the environment, OAuth2 client-credentials against the
// tenant token endpoint, instance metadata (IMDS) managed identity, a
// first-success fallback chain, and a caching decorator. The default chain
// built here is what the configurator substitutes when the caller supplies no
// credential of their own.
//
// Caching and refresh policy live in this package on purpose: the core
// resolution pipeline requests a token per use and never caches.
package credential
