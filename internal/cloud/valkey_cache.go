// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache is a string cache with per-entry expiry.
type ValkeyCache struct {
	client valkey.Client
}

// NewValkeyCache connects and pings the server.
func NewValkeyCache(ctx context.Context, config Cache) (*ValkeyCache, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{config.Address},
		Password:         os.Getenv(config.PasswordEnv),
		SelectDB:         config.SelectDB,
		ConnWriteTimeout: 5 * time.Second,
	}
	if config.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey at %s: %w", config.Address, err)
	}
	slog.Info("connected to valkey", "address", config.Address)
	return &ValkeyCache{client: client}, nil
}

// Get reports ok=false on a miss.
func (c *ValkeyCache) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	value, err = c.client.Do(ctx, c.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value with an expiry of at least one second.
func (c *ValkeyCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return c.client.Do(ctx, c.client.B().Set().Key(key).Value(value).ExSeconds(seconds).Build()).Error()
}

func (c *ValkeyCache) Close() {
	c.client.Close()
}
