package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/wwt-image-collection/hashgen/internal/fingerprint"
)

func CreateCollectionForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("root").
				Title("Collection Root").
				Description("Directory holding the marker entry and the version directories").
				Value(&values.Root).
				Placeholder(".").
				Validate(ValidateRequired),

			huh.NewInput().
				Key("marker").
				Title("Marker Entry").
				Description("Name that must exist in the root before anything runs").
				Value(&values.Marker).
				Placeholder("hashgen").
				Validate(ValidateFileName),
		),
	).WithTheme(GetTheme())
}

func CreateManifestForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("extensions").
				Title("Manifest Extensions").
				Description("Extensions of the manifest files in a version directory").
				Value(&values.Extensions).
				Placeholder(".wtml").
				Validate(ValidateExtensions),

			huh.NewInput().
				Key("fingerprint_file").
				Title("Fingerprint File").
				Description("File in each version directory holding the stored fingerprint").
				Value(&values.FingerprintFile).
				Placeholder("hash.md5").
				Validate(ValidateFileName),

			huh.NewSelect[string]().
				Key("algorithm").
				Title("Algorithm").
				Description("Digest of the expanded manifest content").
				Options(
					huh.NewOption("MD5", string(fingerprint.MD5)),
					huh.NewOption("SHA-256", string(fingerprint.SHA256)),
				).
				Value(&values.Algorithm),
		),
	).WithTheme(GetTheme())
}

func CreateResolverForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("workers").
				Title("Workers").
				Description("Concurrent child manifest loads per document (1-32)").
				Value(&values.Workers).
				Placeholder("1").
				Validate(ValidateIntRange(1, 32)),

			huh.NewInput().
				Key("max_depth").
				Title("Max Depth").
				Description("Maximum manifest nesting depth (0 = unlimited)").
				Value(&values.MaxDepth).
				Placeholder("0").
				Validate(ValidateIntRange(0, 1000)),
		),
	).WithTheme(GetTheme())
}

func CreateFetchForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("timeout").
				Title("Request Timeout").
				Description("HTTP request timeout (e.g., 30s, 1m)").
				Value(&values.Timeout).
				Placeholder("1m0s").
				Validate(ValidateDuration),

			huh.NewInput().
				Key("max_retries").
				Title("Max Retries").
				Description("Retries for rate limited or unavailable servers (0-10)").
				Value(&values.MaxRetries).
				Placeholder("0").
				Validate(ValidateIntRange(0, 10)),

			huh.NewInput().
				Key("user_agent").
				Title("User Agent").
				Description("Custom User-Agent header (leave empty for default)").
				Value(&values.UserAgent),

			huh.NewInput().
				Key("proxy_url").
				Title("Proxy URL").
				Description("HTTP proxy for remote manifests (leave empty for none)").
				Value(&values.ProxyURL).
				Validate(ValidateURL),
		),
	).WithTheme(GetTheme())
}

func CreateCacheForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("enabled").
				Title("Enable Cache").
				Description("Cache fetched manifests to reduce network requests").
				Value(&values.CacheEnabled),

			huh.NewInput().
				Key("ttl").
				Title("Cache TTL").
				Description("How long to keep cached manifests (e.g., 1h, 24h)").
				Value(&values.CacheTTL).
				Placeholder("1h0m0s").
				Validate(ValidateDuration),

			huh.NewInput().
				Key("directory").
				Title("Cache Directory").
				Description("Directory for cache storage").
				Value(&values.CacheDirectory).
				Placeholder("~/.hashgen/cache"),
		),
	).WithTheme(GetTheme())
}

func CreateNotifyForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("token_file").
				Title("Token File").
				Description("Slack bot token file, relative to the root (missing = log only)").
				Value(&values.TokenFile).
				Placeholder("token.txt"),

			huh.NewInput().
				Key("channel").
				Title("Channel").
				Description("Channel that receives change messages").
				Value(&values.Channel).
				Placeholder("jenkins"),

			huh.NewInput().
				Key("header").
				Title("Header").
				Description("Header block of change messages").
				Value(&values.Header).
				Placeholder("WWT Image Collection"),

			huh.NewInput().
				Key("base_url").
				Title("Reference Base URL").
				Description("Version links are this URL followed by the version number").
				Value(&values.BaseURL).
				Placeholder("http://data.openspaceproject.com/wwt").
				Validate(ValidateURL),
		),
	).WithTheme(GetTheme())
}

func CreateLoggingForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("level").
				Title("Log Level").
				Description("Minimum log level to display").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&values.LogLevel),

			huh.NewSelect[string]().
				Key("format").
				Title("Log Format").
				Description("Output format for logs").
				Options(
					huh.NewOption("Pretty (human-readable)", "pretty"),
					huh.NewOption("JSON (structured)", "json"),
				).
				Value(&values.LogFormat),
		),
	).WithTheme(GetTheme())
}

func CreateOutputForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("report").
				Title("Report File").
				Description("Write a run report (.json or .yaml); empty disables it").
				Value(&values.Report),

			huh.NewConfirm().
				Key("progress").
				Title("Progress Bar").
				Description("Show a progress bar while versions are processed").
				Value(&values.Progress),
		),
	).WithTheme(GetTheme())
}

func GetFormForCategory(category string, values *ConfigValues) *huh.Form {
	switch category {
	case "collection":
		return CreateCollectionForm(values)
	case "manifest":
		return CreateManifestForm(values)
	case "resolver":
		return CreateResolverForm(values)
	case "fetch":
		return CreateFetchForm(values)
	case "cache":
		return CreateCacheForm(values)
	case "notify":
		return CreateNotifyForm(values)
	case "logging":
		return CreateLoggingForm(values)
	case "output":
		return CreateOutputForm(values)
	default:
		return nil
	}
}
