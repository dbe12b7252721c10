package config

import _ "embed"

// DefaultConfigYAML 嵌入的默认配置，保证零配置也能启动
//
//go:embed default_config.yaml
var DefaultConfigYAML []byte
