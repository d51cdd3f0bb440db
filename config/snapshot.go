/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config holds the Configuration Snapshot shape consumed by
// the core (spec.md §6): core, monitoring, output, retention, audit.
// Decoding is via github.com/spf13/viper and bounds validation via
// github.com/go-playground/validator/v10, following the
// Validate()-over-struct-tags idiom of the teacher's
// database/gorm/config.go (libval.New().Struct(c), walking
// libval.ValidationErrors into an errors.Error). Loading the YAML file
// itself and the hot-reload loop are out of scope per spec.md's
// Non-goals; this package only owns the shape the core consumes, plus
// a ReloadWatcher seam an out-of-core loop can drive.
package config

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sabouaram/netlinkmon/errors"
)

const (
	errValidation = errors.MinPkgConfig + iota
	errDecode
	errMarshal
)

// CoreConfig bounds spec.md §6's "core" block.
type CoreConfig struct {
	BufferSize    int `mapstructure:"buffer_size" yaml:"buffer_size" json:"buffer_size" validate:"gte=1024,lte=104857600"`
	MaxEvents     int `mapstructure:"max_events" yaml:"max_events" json:"max_events" validate:"gte=100,lte=1000000"`
	RateLimit     int `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit" validate:"gte=0,lte=100000"`
	WorkerThreads int `mapstructure:"worker_threads" yaml:"worker_threads" json:"worker_threads" validate:"gte=1,lte=64"`
}

// MonitoringConfig bounds spec.md §6's "monitoring" block.
type MonitoringConfig struct {
	Protocols        []string `mapstructure:"protocols" yaml:"protocols" json:"protocols"`
	InterfaceInclude []string `mapstructure:"interface_include" yaml:"interface_include" json:"interface_include"`
	InterfaceExclude []string `mapstructure:"interface_exclude" yaml:"interface_exclude" json:"interface_exclude"`
	MessageTypes     []int    `mapstructure:"message_types" yaml:"message_types" json:"message_types"`
	Namespaces       bool     `mapstructure:"namespaces" yaml:"namespaces" json:"namespaces"`
}

// ConsoleOutput bounds spec.md §6's "output.console" block.
type ConsoleOutput struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Format  string `mapstructure:"format" yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// PcapOutput bounds spec.md §6's "output.pcap" block.
type PcapOutput struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	RotateSize int64  `mapstructure:"rotate_size" yaml:"rotate_size" json:"rotate_size" validate:"omitempty,gte=0"`
}

// DatabaseOutput bounds spec.md §6's "output.database" block.
type DatabaseOutput struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path          string `mapstructure:"path" yaml:"path" json:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days" json:"retention_days" validate:"gte=1,lte=3650"`
}

// OutputConfig bounds spec.md §6's "output" block.
type OutputConfig struct {
	Console  ConsoleOutput  `mapstructure:"console" yaml:"console" json:"console"`
	Pcap     PcapOutput     `mapstructure:"pcap" yaml:"pcap" json:"pcap"`
	Database DatabaseOutput `mapstructure:"database" yaml:"database" json:"database"`
}

// RetentionConfig bounds spec.md §6's "retention" block, feeding
// retention.Config directly.
type RetentionConfig struct {
	MaxAgeS          int64 `mapstructure:"max_age_s" yaml:"max_age_s" json:"max_age_s" validate:"gte=0"`
	MaxEvents        int64 `mapstructure:"max_events" yaml:"max_events" json:"max_events" validate:"gte=0"`
	MaxDBSizeMB      int64 `mapstructure:"max_db_size_mb" yaml:"max_db_size_mb" json:"max_db_size_mb" validate:"gte=0"`
	CleanupIntervalS int64 `mapstructure:"cleanup_interval_s" yaml:"cleanup_interval_s" json:"cleanup_interval_s" validate:"gte=0"`
	CleanupOnStartup bool  `mapstructure:"cleanup_on_startup" yaml:"cleanup_on_startup" json:"cleanup_on_startup"`
}

// AuditConfig bounds spec.md §6's "audit" block, feeding audit.Config
// directly.
type AuditConfig struct {
	LogPath         string `mapstructure:"log_path" yaml:"log_path" json:"log_path" validate:"required"`
	SecurityLogPath string `mapstructure:"security_log_path" yaml:"security_log_path" json:"security_log_path"`
	MaxFileSize     int64  `mapstructure:"max_file_size" yaml:"max_file_size" json:"max_file_size" validate:"gte=0"`
	MaxRotations    int    `mapstructure:"max_rotations" yaml:"max_rotations" json:"max_rotations" validate:"gte=0"`
	SyncWrites      bool   `mapstructure:"sync_writes" yaml:"sync_writes" json:"sync_writes"`
	VerifyOnOpen    bool   `mapstructure:"verify_on_open" yaml:"verify_on_open" json:"verify_on_open"`
}

// Snapshot is the full Configuration Snapshot the core consumes
// (spec.md §6).
type Snapshot struct {
	Core       CoreConfig       `mapstructure:"core" yaml:"core" json:"core" validate:"required"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring" json:"monitoring"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Retention  RetentionConfig  `mapstructure:"retention" yaml:"retention" json:"retention"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit" json:"audit"`
}

// FromViper decodes a Snapshot out of v. It does not validate; call
// Validate afterwards.
func FromViper(v *viper.Viper) (*Snapshot, error) {
	var s Snapshot
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.New(errDecode, fmt.Sprintf("config: decode failed: %v", err))
	}
	return &s, nil
}

// Validate checks every struct-tag bound in Snapshot, returning an
// errors.Error aggregating every violated constraint (nil if the
// snapshot is valid), matching spec.md §7's Configuration error class:
// the core refuses to start with invalid configuration.
func (s *Snapshot) Validate() errors.Error {
	e := errors.New(errValidation, "config: validation failed")

	if err := libval.New().Struct(s); err != nil {
		if ve, ok := err.(libval.ValidationErrors); ok {
			for _, fe := range ve {
				e.Add(fmt.Errorf("config field %q fails constraint %q", fe.Namespace(), fe.ActualTag()))
			}
		} else {
			e.Add(err)
		}
	}

	if !e.HasParent() {
		return nil
	}
	return e
}

// DumpYAML renders the snapshot as YAML, mirroring the teacher's
// Component.DefaultConfig(indent string) []byte idiom.
func (s *Snapshot) DumpYAML() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, errors.New(errMarshal, fmt.Sprintf("config: yaml marshal failed: %v", err))
	}
	return b, nil
}
