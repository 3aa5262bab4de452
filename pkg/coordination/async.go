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

package coordination

import (
	"context"
)

// Callback receives the outcome of an asynchronous query. Exactly one of
// OnComplete or OnFailure is invoked, exactly once, from a background
// goroutine. Nil funcs drop their outcome silently.
//
// Absence is a completion, not a failure: a missing key completes with a
// nil pair or an empty slice.
type Callback[T any] struct {
	OnComplete func(result T, meta *QueryMeta)
	OnFailure  func(err error)
}

func (cb Callback[T]) complete(result T, meta *QueryMeta) {
	if cb.OnComplete != nil {
		cb.OnComplete(result, meta)
	}
}

func (cb Callback[T]) fail(err error) {
	if cb.OnFailure != nil {
		cb.OnFailure(err)
	}
}

// GetAsync issues a Get on a background goroutine and delivers the outcome
// through cb. The call returns immediately; cancel ctx to abandon the
// request, which surfaces as a failure.
func (k *KV) GetAsync(ctx context.Context, key string, q *QueryOptions, cb Callback[*KVPair]) {
	go func() {
		pair, meta, err := k.Get(ctx, key, q)
		if err != nil {
			cb.fail(err)
			return
		}
		cb.complete(pair, meta)
	}()
}

// ListAsync issues a List on a background goroutine and delivers the
// outcome through cb.
func (k *KV) ListAsync(ctx context.Context, prefix string, q *QueryOptions, cb Callback[[]*KVPair]) {
	go func() {
		entries, meta, err := k.List(ctx, prefix, q)
		if err != nil {
			cb.fail(err)
			return
		}
		cb.complete(entries, meta)
	}()
}
