// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Copyright 2021 Christian Svensson. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sgio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	ATA_PASSTHROUGH            = 0xa1
	ATA_IDENTIFY_DEVICE        = 0xec
	ATA_IDENTIFY_PACKET_DEVICE = 0xa1

	SCSI_TEST_UNIT_READY  = 0x00
	SCSI_INQUIRY          = 0x12
	SCSI_MODE_SENSE_6     = 0x1a
	SCSI_START_STOP_UNIT  = 0x1b
	SCSI_READ_CAPACITY_10 = 0x25
	SCSI_READ_10          = 0x28
	SCSI_WRITE_10         = 0x2a

	startStopStart = 0x01
	startStopLoEj  = 0x02

	IdentifySize = 512
)

// SCSI INQUIRY response
type InquiryResponse struct {
	Peripheral   byte // peripheral qualifier, device type
	Removable    byte // RMB in bit 7
	Version      byte
	_            [5]byte
	VendorIdent  [8]byte
	ProductIdent [16]byte
	ProductRev   [4]byte
}

// DeviceType returns the peripheral device type.
func (inq InquiryResponse) DeviceType() uint8 {
	return inq.Peripheral & 0x1f
}

func (inq InquiryResponse) IsRemovable() bool {
	return inq.Removable&0x80 != 0
}

func (inq InquiryResponse) String() string {
	return fmt.Sprintf("Type=0x%x, Vendor=%s, Product=%s, Revision=%s",
		inq.Peripheral,
		strings.TrimSpace(string(inq.VendorIdent[:])),
		strings.TrimSpace(string(inq.ProductIdent[:])),
		strings.TrimSpace(string(inq.ProductRev[:])))
}

// INQUIRY - Returns parsed inquiry data.
func SCSIInquiry(fd uintptr) (InquiryResponse, error) {
	var resp InquiryResponse

	respBuf := make([]byte, 36)

	cdb := CDB6{SCSI_INQUIRY}
	binary.BigEndian.PutUint16(cdb[3:], uint16(len(respBuf)))

	if _, err := SendCDB(fd, cdb[:], CDBFromDevice, &respBuf); err != nil {
		return resp, err
	}

	binary.Read(bytes.NewBuffer(respBuf), nativeEndian, &resp)

	return resp, nil
}

// IdentifyCDB builds the ATA PASS-THROUGH(12) command for IDENTIFY DEVICE,
// or IDENTIFY PACKET DEVICE when packet is set.
func IdentifyCDB(packet bool) CDB12 {
	cdb := CDB12{ATA_PASSTHROUGH}
	cdb[1] = PIO_DATA_IN << 1
	cdb[2] = 0x0E
	cdb[4] = 1
	cdb[9] = ATA_IDENTIFY_DEVICE
	if packet {
		cdb[9] = ATA_IDENTIFY_PACKET_DEVICE
	}
	return cdb
}

// ATA Passthrough via SCSI (which is what Linux uses for all ATA these days).
// Returns the raw 512 byte record.
func ATAIdentify(fd uintptr, packet bool) ([IdentifySize]byte, error) {
	var resp [IdentifySize]byte

	respBuf := make([]byte, IdentifySize)

	cdb := IdentifyCDB(packet)
	if _, err := SendCDB(fd, cdb[:], CDBFromDevice, &respBuf); err != nil {
		return resp, err
	}

	copy(resp[:], respBuf)
	return resp, nil
}

// SCSI MODE SENSE(6) - Returns the raw response
func SCSIModeSense(fd uintptr, pageNum, subPageNum, pageControl uint8) ([]byte, error) {
	respBuf := make([]byte, 64)

	cdb := CDB6{SCSI_MODE_SENSE_6}
	cdb[2] = (pageControl << 6) | (pageNum & 0x3f)
	cdb[3] = subPageNum
	cdb[4] = uint8(len(respBuf))

	if _, err := SendCDB(fd, cdb[:], CDBFromDevice, &respBuf); err != nil {
		return respBuf, err
	}

	return respBuf, nil
}

// SCSI READ CAPACITY(10) - Returns the last addressable block and the block size
func SCSIReadCapacity(fd uintptr) (uint32, uint32, error) {
	respBuf := make([]byte, 8)
	cdb := CDB10{SCSI_READ_CAPACITY_10}

	if _, err := SendCDB(fd, cdb[:], CDBFromDevice, &respBuf); err != nil {
		return 0, 0, err
	}

	lastLBA := binary.BigEndian.Uint32(respBuf[0:]) // max. addressable LBA
	LBsize := binary.BigEndian.Uint32(respBuf[4:])  // logical block (i.e., sector) size

	return lastLBA, LBsize, nil
}

// SCSI TEST UNIT READY - nil when a medium is loaded and ready
func SCSITestUnitReady(fd uintptr) error {
	cdb := CDB6{SCSI_TEST_UNIT_READY}
	_, err := SendCDB(fd, cdb[:], CDBNone, nil)
	return err
}

// StartStopCDB builds START STOP UNIT with LoEj set, ejecting the medium or
// loading it.
func StartStopCDB(eject bool) CDB6 {
	cdb := CDB6{SCSI_START_STOP_UNIT}
	cdb[4] = startStopLoEj
	if !eject {
		cdb[4] |= startStopStart
	}
	return cdb
}

// SCSI START STOP UNIT
func SCSIStartStopUnit(fd uintptr, eject bool) error {
	cdb := StartStopCDB(eject)
	_, err := SendCDB(fd, cdb[:], CDBNone, nil)
	return err
}

// Read10CDB builds READ(10).
func Read10CDB(lba uint32, blocks uint16) CDB10 {
	cdb := CDB10{SCSI_READ_10}
	binary.BigEndian.PutUint32(cdb[2:], lba)
	binary.BigEndian.PutUint16(cdb[7:], blocks)
	return cdb
}

// Write10CDB builds WRITE(10).
func Write10CDB(lba uint32, blocks uint16) CDB10 {
	cdb := Read10CDB(lba, blocks)
	cdb[0] = SCSI_WRITE_10
	return cdb
}

// SCSI READ(10) - Fills buf, which must hold blocks whole blocks
func SCSIRead10(fd uintptr, lba uint32, blocks uint16, buf *[]byte) (int, error) {
	cdb := Read10CDB(lba, blocks)
	return SendCDB(fd, cdb[:], CDBFromDevice, buf)
}

// SCSI WRITE(10)
func SCSIWrite10(fd uintptr, lba uint32, blocks uint16, in []byte) (int, error) {
	cdb := Write10CDB(lba, blocks)
	return SendCDB(fd, cdb[:], CDBToDevice, &in)
}
