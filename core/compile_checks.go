package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ConnectionConfig = (*Settings)(nil)
	_ TokenCredential  = (TokenCredentialFunc)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
