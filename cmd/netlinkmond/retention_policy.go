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

package main

import (
	"time"

	"github.com/sabouaram/netlinkmon/config"
	"github.com/sabouaram/netlinkmon/eventdb"
	"github.com/sabouaram/netlinkmon/retention"
)

// retentionPolicyHandle adapts the configuration snapshot's retention
// block onto retention.Policy, with the event database as both the
// Store and SizeReporter it sweeps.
type retentionPolicyHandle struct {
	policy *retention.Policy
}

func newRetentionPolicy(cfg config.RetentionConfig, db *eventdb.DB) *retentionPolicyHandle {
	p := retention.New(retention.Config{
		MaxAgeS:         cfg.MaxAgeS,
		MaxEvents:       cfg.MaxEvents,
		MaxDBSizeMB:     cfg.MaxDBSizeMB,
		CleanupInterval: time.Duration(cfg.CleanupIntervalS) * time.Second,
		BatchDeleteSize: retentionBatchDeleteSize,
		CleanupOnStart:  cfg.CleanupOnStartup,
	}, db, db)
	return &retentionPolicyHandle{policy: p}
}

func (h *retentionPolicyHandle) Start() { h.policy.Start() }

func (h *retentionPolicyHandle) Stop() { h.policy.Stop() }

func (h *retentionPolicyHandle) Stats() retention.Stats { return h.policy.Stats() }
