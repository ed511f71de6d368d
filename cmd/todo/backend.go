package main

import (
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/store/filekv"
	"github.com/Makepad-fr/tada/internal/store/kv"
	"github.com/Makepad-fr/tada/internal/store/sqlkv"
)

// openBackend returns the key-value slot selected by TADA_BACKEND.
func openBackend(cfg *config.Config) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	case config.BackendSQLite:
		return sqlkv.Open(sqlkv.DriverSQLite, cfg.DSN)
	case config.BackendMySQL:
		return sqlkv.Open(sqlkv.DriverMySQL, cfg.DSN)
	case config.BackendPostgres:
		return sqlkv.Open(sqlkv.DriverPostgres, cfg.DSN)
	default:
		return filekv.New(cfg.DataDir)
	}
}
