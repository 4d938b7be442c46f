// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"sync"
)

// ReplyPort queues answered requests for their sender. Queueing a reply
// never blocks, so a sender that is slow to collect its replies stalls
// nobody else.
type ReplyPort struct {
	mu      sync.Mutex
	replies []*Request
	ready   chan struct{}
}

func NewReplyPort() *ReplyPort {
	return &ReplyPort{ready: make(chan struct{}, 1)}
}

func (p *ReplyPort) put(r *Request) {
	p.mu.Lock()
	p.replies = append(p.replies, r)
	p.mu.Unlock()

	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// Get removes and returns the oldest reply, or nil when none is queued.
func (p *ReplyPort) Get() *Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return nil
	}
	r := p.replies[0]
	p.replies[0] = nil
	p.replies = p.replies[1:]
	return r
}

// Ready is signalled after a reply is queued. One signal may stand for
// several replies; drain them with Get.
func (p *ReplyPort) Ready() <-chan struct{} {
	return p.ready
}

// Wait returns the oldest reply, blocking until one arrives or ctx is done.
func (p *ReplyPort) Wait(ctx context.Context) (*Request, error) {
	for {
		if r := p.Get(); r != nil {
			return r, nil
		}
		select {
		case <-p.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
