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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sabouaram/netlinkmon/audit"
)

// newVerifyAuditCommand exposes audit.Verify as a CLI entry point
// (spec.md §4.13's standalone integrity verifier, SPEC_FULL §12).
func newVerifyAuditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-audit <path>",
		Short: "verify the hash chain of an audit log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, firstBadLine := audit.Verify(args[0])
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: chain intact\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: chain broken at line %d\n", args[0], firstBadLine)
			return exitf(exitGeneric, fmt.Errorf("audit log %s: hash chain broken at line %d", args[0], firstBadLine))
		},
	}
}
