// pkg/shared/constants.go

package shared

const (
	AppID      = "eos-sanitizer"
	EnvPrefix  = "EOS_SANITIZER"
	LogDir     = "/var/log/eos-sanitizer/"
	LogFile    = LogDir + "eos-sanitizer.log"
	LogFilePWD = "./eos-sanitizer.log"
	LogFileTmp = "/tmp/eos-sanitizer/eos-sanitizer.log"

	DefaultConfigFilename = "config.yaml"
	DefaultListenAddr     = "127.0.0.1:7788"
)

const (
	// Permission modes (in octal)
	DirPermStandard        = 0755
	FilePermOwnerRWX       = 0700
	FilePermStandard       = 0644
	FilePermOwnerReadWrite = 0600
	ConfigFilePerm         = 0644
)

// Version is overridden at build time with -ldflags.
var Version = "dev"
