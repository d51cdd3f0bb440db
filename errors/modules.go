/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

// Each core package reserves a contiguous block of 100 error codes so that a
// bare CodeError can be traced back to its owning package without consulting
// a lookup table.
const (
	MinPkgEvent      = 100
	MinPkgRing       = 200
	MinPkgPool       = 300
	MinPkgRateLimit  = 400
	MinPkgWorkerPool = 500
	MinPkgFilter     = 600
	MinPkgWindow     = 700
	MinPkgCorrelate  = 800
	MinPkgSecurity   = 900
	MinPkgDispatcher = 1000
	MinPkgStorage    = 1100
	MinPkgEventDB    = 1200
	MinPkgAudit      = 1300
	MinPkgRetention  = 1400
	MinPkgLifecycle  = 1500
	MinPkgTelemetry  = 1600
	MinPkgConfig     = 1700
	MinPkgCmd        = 1800

	MinAvailable = 4000
)
