// Package core contains the canonical entraauth contracts: access tokens,
// token credentials, scope constants, and the connection-config surface the
// configurator mutates. Adapters and credential implementations depend on
// this package; core must not depend on them.
package core
