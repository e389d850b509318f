package tui

type Category struct {
	ID          string
	Name        string
	Description string
}

var Categories = []Category{
	{ID: "collection", Name: "Collection", Description: "Root directory and marker entry"},
	{ID: "manifest", Name: "Manifests", Description: "Manifest extensions and fingerprint file"},
	{ID: "resolver", Name: "Resolver", Description: "Workers and nesting depth"},
	{ID: "fetch", Name: "Fetch", Description: "Timeouts, retries, and proxy for remote manifests"},
	{ID: "cache", Name: "Cache", Description: "Caching behavior and TTL"},
	{ID: "notify", Name: "Notifications", Description: "Slack channel and message settings"},
	{ID: "logging", Name: "Logging", Description: "Log level and format"},
	{ID: "output", Name: "Output", Description: "Run report and progress bar"},
}

func GetCategoryByID(id string) *Category {
	for i := range Categories {
		if Categories[i].ID == id {
			return &Categories[i]
		}
	}
	return nil
}

func GetCategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}
