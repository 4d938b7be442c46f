// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sgio

import (
	"bytes"
	"errors"
	"testing"
)

func TestCDBBuilders(t *testing.T) {
	testCases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"Read10", func() []byte { c := Read10CDB(0x01020304, 0x0506); return c[:] }(),
			[]byte{0x28, 0, 1, 2, 3, 4, 0, 5, 6, 0}},
		{"Write10", func() []byte { c := Write10CDB(7, 1); return c[:] }(),
			[]byte{0x2a, 0, 0, 0, 0, 7, 0, 0, 1, 0}},
		{"Eject", func() []byte { c := StartStopCDB(true); return c[:] }(),
			[]byte{0x1b, 0, 0, 0, 0x02, 0}},
		{"Load", func() []byte { c := StartStopCDB(false); return c[:] }(),
			[]byte{0x1b, 0, 0, 0, 0x03, 0}},
		{"Identify", func() []byte { c := IdentifyCDB(false); return c[:] }(),
			[]byte{0xa1, 0x08, 0x0e, 0, 1, 0, 0, 0, 0, 0xec, 0, 0}},
		{"IdentifyPacket", func() []byte { c := IdentifyCDB(true); return c[:] }(),
			[]byte{0xa1, 0x08, 0x0e, 0, 1, 0, 0, 0, 0, 0xa1, 0, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !bytes.Equal(tc.got, tc.want) {
				t.Errorf("CDB = % x; want % x", tc.got, tc.want)
			}
		})
	}
}

func TestSenseKey(t *testing.T) {
	testCases := []struct {
		name  string
		sense []byte
		want  error
	}{
		{"Fixed not ready", []byte{0x70, 0, 0x02, 0}, ErrNotReady},
		{"Fixed illegal request", []byte{0xf0, 0, 0x05, 0}, ErrIllegalRequest},
		{"Descriptor unit attention", []byte{0x72, 0x06, 0, 0}, ErrUnitAttention},
		{"Descriptor data protect", []byte{0x72, 0x07, 0, 0}, ErrDataProtect},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := senseKey(tc.sense)
			if !ok {
				t.Fatalf("senseKey(% x) not recognised", tc.sense)
			}
			if err := SenseError(key); !errors.Is(err, tc.want) {
				t.Errorf("SenseError(%#x) = %v; want %v", key, err, tc.want)
			}
		})
	}
	if _, ok := senseKey([]byte{0x00, 0, 0, 0}); ok {
		t.Errorf("senseKey accepted an invalid response code")
	}
}

func TestInquiryResponse(t *testing.T) {
	inq := InquiryResponse{Peripheral: 0x05, Removable: 0x80}
	if inq.DeviceType() != 5 || !inq.IsRemovable() {
		t.Errorf("DeviceType() = %d, IsRemovable() = %v; want 5, true", inq.DeviceType(), inq.IsRemovable())
	}
}
