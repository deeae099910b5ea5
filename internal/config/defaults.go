package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/weft/data/db/weft.db"
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = "/usr/local/var/weft/data/indices/catalog"
	}
	if cfg.Inputs.LinkColumn == "" {
		cfg.Inputs.LinkColumn = "link_id"
	}
	if cfg.Inputs.ItemColumn == "" {
		cfg.Inputs.ItemColumn = "item_id"
	}
	if cfg.Inputs.WeightColumn == "" {
		cfg.Inputs.WeightColumn = "weight"
	}
	if cfg.Pipeline.K == 0 {
		cfg.Pipeline.K = 64
	}
	// Raw self-multiplication is the default similarity; cosine is opt-in.
	if cfg.Pipeline.Normalization == "" {
		cfg.Pipeline.Normalization = "none"
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "/usr/local/var/weft/data/embeddings.csv"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".csv", ".tsv", ".xlsx", ".jsonl"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
