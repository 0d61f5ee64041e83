package geopkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"exposure-scout/pkg/geometry"
)

// WKB geometry type codes.
const (
	wkbPoint        = 1
	wkbPolygon      = 3
	wkbMultiPolygon = 6
)

const srsWGS84 = 4326

// encodeHeader writes the GeoPackage binary header: "GP" magic, version 0,
// flags with the little-endian bit set and no envelope, then the SRS id.
func encodeHeader(buf *bytes.Buffer) {
	buf.WriteByte('G')
	buf.WriteByte('P')
	buf.WriteByte(0)    // version
	buf.WriteByte(0x01) // flags: little-endian, envelope absent
	binary.Write(buf, binary.LittleEndian, int32(srsWGS84))
}

func writeCoord(buf *bytes.Buffer, p geometry.Point2D) {
	binary.Write(buf, binary.LittleEndian, p.X)
	binary.Write(buf, binary.LittleEndian, p.Y)
}

// EncodePoint encodes a lon/lat point as GeoPackage binary geometry.
func EncodePoint(lon, lat float64) []byte {
	var buf bytes.Buffer
	encodeHeader(&buf)
	buf.WriteByte(1) // little-endian WKB
	binary.Write(&buf, binary.LittleEndian, uint32(wkbPoint))
	writeCoord(&buf, geometry.Point2D{X: lon, Y: lat})
	return buf.Bytes()
}

// EncodePolygon encodes a single-ring polygon as GeoPackage binary geometry.
// The ring is closed if it is not already.
func EncodePolygon(ring geometry.Ring) []byte {
	closed := ring.Closed()

	var buf bytes.Buffer
	encodeHeader(&buf)
	buf.WriteByte(1)
	binary.Write(&buf, binary.LittleEndian, uint32(wkbPolygon))
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // ring count
	binary.Write(&buf, binary.LittleEndian, uint32(len(closed)))
	for _, p := range closed {
		writeCoord(&buf, p)
	}
	return buf.Bytes()
}

// DecodeGeometry parses GeoPackage binary geometry into rings. A point
// decodes to a single one-vertex ring; polygons yield their outer ring and
// multipolygons one ring per member polygon. Inner rings are skipped.
func DecodeGeometry(blob []byte) ([]geometry.Ring, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("not a GeoPackage geometry blob")
	}

	flags := blob[3]
	order := binary.ByteOrder(binary.BigEndian)
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}

	// Envelope size depends on the envelope contents indicator (bits 1-3).
	envSizes := []int{0, 32, 48, 48, 64}
	envCode := int(flags >> 1 & 0x07)
	if envCode >= len(envSizes) {
		return nil, fmt.Errorf("invalid envelope indicator %d", envCode)
	}
	_ = order

	r := &wkbReader{data: blob[8+envSizes[envCode]:]}
	return r.readGeometry()
}

type wkbReader struct {
	data []byte
	pos  int
}

func (r *wkbReader) order() (binary.ByteOrder, error) {
	b, err := r.byte()
	if err != nil {
		return nil, err
	}
	if b == 1 {
		return binary.LittleEndian, nil
	}
	return binary.BigEndian, nil
}

func (r *wkbReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("truncated WKB")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *wkbReader) uint32(o binary.ByteOrder) (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("truncated WKB")
	}
	v := o.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *wkbReader) float64(o binary.ByteOrder) (float64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("truncated WKB")
	}
	v := math.Float64frombits(o.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

func (r *wkbReader) readGeometry() ([]geometry.Ring, error) {
	o, err := r.order()
	if err != nil {
		return nil, err
	}
	geomType, err := r.uint32(o)
	if err != nil {
		return nil, err
	}

	switch geomType {
	case wkbPoint:
		x, err := r.float64(o)
		if err != nil {
			return nil, err
		}
		y, err := r.float64(o)
		if err != nil {
			return nil, err
		}
		return []geometry.Ring{{{X: x, Y: y}}}, nil

	case wkbPolygon:
		ring, err := r.readPolygonOuter(o)
		if err != nil {
			return nil, err
		}
		return []geometry.Ring{ring}, nil

	case wkbMultiPolygon:
		count, err := r.uint32(o)
		if err != nil {
			return nil, err
		}
		rings := make([]geometry.Ring, 0, count)
		for i := uint32(0); i < count; i++ {
			sub, err := r.readGeometry()
			if err != nil {
				return nil, err
			}
			rings = append(rings, sub...)
		}
		return rings, nil

	default:
		return nil, fmt.Errorf("unsupported WKB geometry type %d", geomType)
	}
}

func (r *wkbReader) readPolygonOuter(o binary.ByteOrder) (geometry.Ring, error) {
	ringCount, err := r.uint32(o)
	if err != nil {
		return nil, err
	}
	if ringCount == 0 {
		return nil, fmt.Errorf("polygon with no rings")
	}

	var outer geometry.Ring
	for i := uint32(0); i < ringCount; i++ {
		n, err := r.uint32(o)
		if err != nil {
			return nil, err
		}
		ring := make(geometry.Ring, n)
		for j := uint32(0); j < n; j++ {
			x, err := r.float64(o)
			if err != nil {
				return nil, err
			}
			y, err := r.float64(o)
			if err != nil {
				return nil, err
			}
			ring[j] = geometry.Point2D{X: x, Y: y}
		}
		if i == 0 {
			outer = ring
		}
	}
	return outer, nil
}
