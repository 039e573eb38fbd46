package sbf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// Magic0 and Magic1 are the first two bytes of every payload file.
	Magic0 = 42
	Magic1 = 42

	// BinaryHeaderSize is the fixed size of the payload file header. Points
	// always start at this offset whatever the reserved bytes contain.
	BinaryHeaderSize = 64

	// MaxScalarFields is the largest scalar field count the int16 header
	// field can carry.
	MaxScalarFields = math.MaxInt16

	bytesPerValue = 4
	chunkValues   = 16 * 1024
)

// Fixed offsets inside the payload header.
const (
	offPointCount  = 2
	offScalarCount = 10
	offShiftX      = 12
	offShiftY      = 20
	offShiftZ      = 28
)

// Payload is the decoded content of a payload file.
type Payload struct {
	Magic            [2]byte
	PointCount       uint64
	ScalarFieldCount int16
	GlobalShift      Vec3
	Cloud            *PointCloud
}

// ValidMagic reports whether the payload started with the expected magic.
func (p *Payload) ValidMagic() bool {
	return p.Magic[0] == Magic0 && p.Magic[1] == Magic1
}

func encodeBinaryHeader(pointCount uint64, scalarFields int16, shift Vec3) [BinaryHeaderSize]byte {
	var hdr [BinaryHeaderSize]byte
	hdr[0], hdr[1] = Magic0, Magic1
	binary.BigEndian.PutUint64(hdr[offPointCount:], pointCount)
	binary.BigEndian.PutUint16(hdr[offScalarCount:], uint16(scalarFields))
	binary.BigEndian.PutUint64(hdr[offShiftX:], math.Float64bits(shift[0]))
	binary.BigEndian.PutUint64(hdr[offShiftY:], math.Float64bits(shift[1]))
	binary.BigEndian.PutUint64(hdr[offShiftZ:], math.Float64bits(shift[2]))
	return hdr
}

// EncodeBinary writes the payload header followed by the points of cloud.
// Nothing is written when the cloud cannot be represented.
func EncodeBinary(w io.Writer, cloud *PointCloud, shift Vec3) error {
	if cloud == nil || cloud.Channels() < CoordinateChannels {
		return newError(ErrInvalidArgument, "write", "", "cloud needs at least %d channels", CoordinateChannels)
	}
	sf := cloud.ScalarFieldCount()
	if sf > MaxScalarFields {
		return newError(ErrFormatLimitExceeded, "write", "", "%d scalar fields, at most %d fit the payload header", sf, MaxScalarFields)
	}

	bw := bufio.NewWriter(w)
	hdr := encodeBinaryHeader(uint64(cloud.Points()), int16(sf), shift)
	if _, err := bw.Write(hdr[:]); err != nil {
		return ioError("write", "", err)
	}

	buf := make([]byte, chunkValues*bytesPerValue)
	data := cloud.Data()
	for start := 0; start < len(data); start += chunkValues {
		end := min(start+chunkValues, len(data))
		n := 0
		for _, v := range data[start:end] {
			binary.BigEndian.PutUint32(buf[n:], math.Float32bits(v))
			n += bytesPerValue
		}
		if _, err := bw.Write(buf[:n]); err != nil {
			return ioError("write", "", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return ioError("write", "", err)
	}
	return nil
}

// DecodeBinary reads a payload file from the start of r. A wrong magic is a
// warning unless strictMagic is set, in which case it is ErrInvalidHeader.
// Bytes after the declared points are ignored.
func DecodeBinary(r io.ReadSeeker, strictMagic bool) (*Payload, []Warning, error) {
	var hdr [BinaryHeaderSize]byte
	if n, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, newError(ErrTruncatedFile, "read", "", "payload header is %d bytes, want %d", n, BinaryHeaderSize)
		}
		return nil, nil, ioError("read", "", err)
	}

	p := &Payload{
		Magic:            [2]byte{hdr[0], hdr[1]},
		PointCount:       binary.BigEndian.Uint64(hdr[offPointCount:]),
		ScalarFieldCount: int16(binary.BigEndian.Uint16(hdr[offScalarCount:])),
		GlobalShift: Vec3{
			math.Float64frombits(binary.BigEndian.Uint64(hdr[offShiftX:])),
			math.Float64frombits(binary.BigEndian.Uint64(hdr[offShiftY:])),
			math.Float64frombits(binary.BigEndian.Uint64(hdr[offShiftZ:])),
		},
	}

	var warnings []Warning
	if !p.ValidMagic() {
		if strictMagic {
			return nil, nil, newError(ErrInvalidHeader, "read", "", "payload magic is %d %d, want %d %d", p.Magic[0], p.Magic[1], Magic0, Magic1)
		}
		warnings = append(warnings, Warning{Message: fmt.Sprintf("payload magic is %d %d, want %d %d", p.Magic[0], p.Magic[1], Magic0, Magic1)})
	}
	if p.ScalarFieldCount < 0 {
		return nil, nil, newError(ErrInvalidHeader, "read", "", "payload declares %d scalar fields", p.ScalarFieldCount)
	}

	channels := CoordinateChannels + int(p.ScalarFieldCount)
	stride := uint64(channels * bytesPerValue)

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, nil, ioError("read", "", err)
	}
	available := uint64(0)
	if size > BinaryHeaderSize {
		available = uint64(size - BinaryHeaderSize)
	}
	if p.PointCount > available/stride {
		return nil, nil, newError(ErrTruncatedFile, "read", "",
			"payload holds %d bytes, header declares %d points of %d channels (%d bytes per point)",
			available, p.PointCount, channels, stride)
	}

	if _, err := r.Seek(BinaryHeaderSize, io.SeekStart); err != nil {
		return nil, nil, ioError("read", "", err)
	}

	cloud, err := NewPointCloud(channels, int(p.PointCount))
	if err != nil {
		return nil, nil, err
	}

	br := bufio.NewReader(r)
	buf := make([]byte, chunkValues*bytesPerValue)
	data := cloud.Data()
	for start := 0; start < len(data); start += chunkValues {
		end := min(start+chunkValues, len(data))
		chunk := buf[:(end-start)*bytesPerValue]
		if _, err := io.ReadFull(br, chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil, newError(ErrTruncatedFile, "read", "", "payload ended before point %d", start/channels)
			}
			return nil, nil, ioError("read", "", err)
		}
		for i := range data[start:end] {
			data[start+i] = math.Float32frombits(binary.BigEndian.Uint32(chunk[i*bytesPerValue:]))
		}
	}

	p.Cloud = cloud
	return p, warnings, nil
}
