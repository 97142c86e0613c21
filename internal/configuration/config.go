package configuration

import (
	"encoding/json"
	"os"
)

type StoreConfig struct {
	// Backend selects the document store: "memory", "mongo" or
	// "firestore".
	Backend string `json:"backend"`
}

type MongoConfig struct {
	Uri      string `json:"uri"`
	Database string `json:"database"`
}

type FirestoreConfig struct {
	ProjectID       string `json:"project_id"`
	CredentialsFile string `json:"credentials_file"`
}

type ServerConfig struct {
	AppPort     int    `json:"app_port"`
	SocketPort  int    `json:"socket_port"`
	SocketRoute string `json:"socketRoute"`
}

type CorsConfig struct {
	AllowOrigins []string `json:"allow_origins"`
}

type Config struct {
	Store     StoreConfig     `json:"store"`
	Mongo     MongoConfig     `json:"mongo"`
	Firestore FirestoreConfig `json:"firestore"`
	Server    ServerConfig    `json:"server"`
	Cors      CorsConfig      `json:"cors"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
