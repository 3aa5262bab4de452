// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	originalLogger := Logger

	defer func() {
		Logger = originalLogger
	}()

	Logger = nil

	InitLogger()

	if Logger == nil {
		t.Error("InitLogger() failed: Logger is nil after initialization")
	}

	if Logger.Core() == nil {
		t.Error("InitLogger() failed: Logger core is nil")
	}
}

func TestInitLoggerMultipleCalls(t *testing.T) {
	originalLogger := Logger

	defer func() {
		Logger = originalLogger
	}()

	ResetLogger() // Use proper reset function

	InitLogger()
	firstLogger := Logger

	InitLogger()
	secondLogger := Logger

	if firstLogger == nil || secondLogger == nil {
		t.Error("InitLogger() failed: Logger is nil after multiple calls")
	}

	// Multiple calls should return the same logger instance (race-safe behavior)
	if firstLogger != secondLogger {
		t.Error("InitLogger() should return the same logger instance on multiple calls for thread safety")
	}
}

func TestGetLoggerInitializes(t *testing.T) {
	originalLogger := Logger

	defer func() {
		Logger = originalLogger
	}()

	ResetLogger()

	if got := GetLogger(); got == nil {
		t.Error("GetLogger() should initialize and return a logger")
	}
}

func TestSetLevel(t *testing.T) {
	originalLogger := Logger

	defer func() {
		_ = SetLevel("info")
		Logger = originalLogger
	}()

	ResetLogger()
	InitLogger()

	if got := GetLevel(); got != zapcore.InfoLevel {
		t.Errorf("default level = %v, want %v", got, zapcore.InfoLevel)
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug) failed: %v", err)
	}
	if got := GetLevel(); got != zapcore.DebugLevel {
		t.Errorf("level after SetLevel(debug) = %v, want %v", got, zapcore.DebugLevel)
	}
	if !Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("logger core should accept debug entries after SetLevel(debug)")
	}

	if err := SetLevel("nonsense"); err == nil {
		t.Error("SetLevel(nonsense) should fail")
	}
	if got := GetLevel(); got != zapcore.DebugLevel {
		t.Errorf("a failed SetLevel must not change the level, got %v", got)
	}
}

func TestResetLoggerRestoresLevel(t *testing.T) {
	originalLogger := Logger

	defer func() {
		Logger = originalLogger
	}()

	ResetLogger()

	if err := SetLevel("error"); err != nil {
		t.Fatalf("SetLevel(error) failed: %v", err)
	}

	ResetLogger()

	if got := GetLevel(); got != zapcore.InfoLevel {
		t.Errorf("level after ResetLogger() = %v, want %v", got, zapcore.InfoLevel)
	}
}

func BenchmarkInitLogger(b *testing.B) {
	originalLogger := Logger

	defer func() {
		Logger = originalLogger
	}()

	for i := 0; i < b.N; i++ {
		Logger = nil
		InitLogger()
	}
}
