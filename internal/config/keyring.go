/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"log/slog"
	"strings"

	applog "travelcanvas/internal/log"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService = "TravelCanvas"
	keyringDSN     = "remote_dsn"
)

// SecretStore abstracts the OS keyring so tests can use an in-memory store.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }

func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

var secrets SecretStore = osKeyring{}

// SetSecretStore replaces the secret store and returns the previous one.
func SetSecretStore(s SecretStore) SecretStore {
	prev := secrets
	secrets = s
	return prev
}

// LoadDSN returns the remote DSN. TC_PG_DSN wins over the keyring.
// Keyring failures (no secret service on headless hosts) are logged and yield "".
func LoadDSN() string {
	if v, ok := lookup(EnvPGDSN); ok {
		return v
	}
	v, err := secrets.Get(keyringService, keyringDSN)
	if err != nil {
		applog.WithComponent("config").Debug("keyring unavailable", slog.Any("err", err))
		return ""
	}
	return strings.TrimSpace(v)
}

// StoreDSN saves the remote DSN in the keyring. An empty dsn deletes it.
func StoreDSN(dsn string) error {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return secrets.Delete(keyringService, keyringDSN)
	}
	return secrets.Set(keyringService, keyringDSN, dsn)
}
