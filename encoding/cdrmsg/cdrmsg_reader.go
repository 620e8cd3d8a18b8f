// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package cdrmsg

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/encoding/cdr"
)

// A Reader decodes messages of one root type. It is not safe for
// concurrent use.
type Reader struct {
	root  *complexInfo
	cache *infoCache
	log   *zap.Logger
}

func NewReader(root string, defs []omgidl.Definition, opts ...ReaderOption) (*Reader, error) {
	var options readerOptions
	for _, opt := range opts {
		opt.applyReader(&options)
	}
	cache := newInfoCache(defs)
	info, err := cache.root(root)
	if err != nil {
		return nil, err
	}
	return &Reader{
		root:  info,
		cache: cache,
		log:   loggerOrNop(options.logger),
	}, nil
}

// ReadMessage decodes a CDR buffer, including its encapsulation header.
func (rd *Reader) ReadMessage(buf []byte) (map[string]any, error) {
	r, err := cdr.NewReader(buf)
	if err != nil {
		return nil, err
	}
	msg, err := rd.readComplex(r, rd.root, -1)
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		rd.log.Debug("ignoring trailing bytes",
			zap.String("type", rd.root.def.Name),
			zap.Int("bytes", r.Remaining()),
		)
	}
	return msg, nil
}

// readComplex reads a struct or union. knownEnd is the end offset taken
// from an enclosing member header, or -1 when unknown. A delimiter header
// takes precedence over it.
func (rd *Reader) readComplex(r *cdr.Reader, info *complexInfo, knownEnd int) (map[string]any, error) {
	typeEnd := knownEnd
	if info.usesDelimiterHeader && r.IsCDR2() {
		start := r.Offset()
		size := r.DHeader()
		if err := r.Error(); err != nil {
			return nil, fieldError(info, "", start, err)
		}
		typeEnd = r.Offset() + int(size)
	}

	var msg map[string]any
	var err error
	switch {
	case info.isUnion:
		msg, err = rd.readUnion(r, info)
	case info.usesMemberHeader:
		msg, err = rd.readMutableStruct(r, info, typeEnd)
	default:
		msg, err = rd.readStruct(r, info, typeEnd)
	}
	if err != nil {
		return nil, err
	}

	if typeEnd >= 0 && r.Offset() < typeEnd {
		rd.log.Debug("skipping unread members",
			zap.String("type", info.def.Name),
			zap.Int("bytes", typeEnd-r.Offset()),
		)
		r.Seek(typeEnd)
		if err := r.Error(); err != nil {
			return nil, fieldError(info, "", r.Offset(), err)
		}
	}
	return msg, nil
}

// atTypeEnd reports whether an appendable struct has no more members in
// the data. Without a delimiter header the end is the end of the buffer
// or an XCDR1 sentinel.
func atTypeEnd(r *cdr.Reader, typeEnd int) bool {
	if typeEnd >= 0 {
		return r.Offset() >= typeEnd
	}
	return r.Remaining() == 0 || r.PeekSentinelHeader()
}

func (rd *Reader) readStruct(r *cdr.Reader, info *complexInfo, typeEnd int) (map[string]any, error) {
	msg := make(map[string]any, len(info.fields))
	for ii, f := range info.fields {
		if info.isAppendable() && atTypeEnd(r, typeEnd) {
			rd.log.Debug("appendable struct ended early",
				zap.String("type", info.def.Name),
				zap.String("field", f.name),
			)
			for _, missing := range info.fields[ii:] {
				msg[missing.name] = defaultValue(missing)
			}
			break
		}

		start := r.Offset()
		var value any
		var err error
		if f.isOptional {
			value, err = rd.readOptional(r, f)
		} else {
			value, err = rd.readField(r, f, -1)
		}
		if err != nil {
			return nil, fieldError(info, f.name, start, err)
		}
		msg[f.name] = value
	}
	return msg, nil
}

// readOptional reads an optional member of a final or appendable type.
// XCDR2 prefixes it with a presence flag; XCDR1 with a member header
// whose size is zero when the member is absent.
func (rd *Reader) readOptional(r *cdr.Reader, f *fieldInfo) (any, error) {
	if r.IsCDR2() {
		present := r.Bool()
		if err := r.Error(); err != nil || !present {
			return nil, err
		}
		return rd.readField(r, f, -1)
	}

	header := r.MemberHeader()
	if err := r.Error(); err != nil {
		return nil, err
	}
	if header.Sentinel || header.ID != f.id {
		found := "a list terminator"
		if !header.Sentinel {
			found = fmt.Sprintf("member id %d", header.ID)
		}
		return nil, fmt.Errorf("%w: expected member id %d (%s), found %s",
			ErrMemberHeaderMismatch, f.id, f.name, found)
	}
	if header.Size == 0 {
		return nil, nil
	}
	memberEnd := r.Offset() + int(header.Size)
	value, err := rd.readField(r, f, memberEnd)
	if err != nil {
		return nil, err
	}
	return value, finishMember(r, header.ID, memberEnd)
}

// finishMember moves past any unread bytes of a member. Reading beyond
// the size declared in the member header is an error.
func finishMember(r *cdr.Reader, id uint32, memberEnd int) error {
	switch {
	case r.Offset() < memberEnd:
		r.Seek(memberEnd)
	case r.Offset() > memberEnd:
		return fmt.Errorf("%w: member id %d overran its declared size by %d bytes",
			ErrMemberHeaderMismatch, id, r.Offset()-memberEnd)
	}
	return r.Error()
}

func (rd *Reader) readMutableStruct(r *cdr.Reader, info *complexInfo, typeEnd int) (map[string]any, error) {
	msg := make(map[string]any, len(info.fields))
	next := 0
	for {
		if typeEnd >= 0 {
			if r.Offset() >= typeEnd {
				break
			}
		} else if r.Remaining() == 0 {
			break
		}

		headerStart := r.Offset()
		header := r.MemberHeader()
		if err := r.Error(); err != nil {
			return nil, fieldError(info, "", headerStart, err)
		}
		if header.Sentinel {
			break
		}
		dataStart := r.Offset()
		memberEnd := dataStart + int(header.Size)

		f, ok := info.fieldsByID[header.ID]
		if !ok {
			if header.MustUnderstand {
				return nil, memberMismatch(info, next, header, headerStart)
			}
			if memberEnd > r.Len() {
				rd.log.Debug("unknown member runs past the buffer, treating as end of message",
					zap.String("type", info.def.Name),
					zap.Uint32("id", header.ID),
					zap.Uint32("size", header.Size),
				)
				r.Seek(r.Len())
				break
			}
			rd.log.Debug("skipping unknown member",
				zap.String("type", info.def.Name),
				zap.Uint32("id", header.ID),
				zap.Uint32("size", header.Size),
			)
			r.Seek(memberEnd)
			continue
		}

		// The NEXTINT of the header is the member's own length prefix.
		if header.HasNextInt {
			r.Seek(dataStart - 4)
		}
		value, err := rd.readField(r, f, memberEnd)
		if err == nil {
			err = finishMember(r, header.ID, memberEnd)
		}
		if err != nil {
			return nil, fieldError(info, f.name, dataStart, err)
		}
		msg[f.name] = value
		next = slices.Index(info.fields, f) + 1
	}

	for _, f := range info.fields {
		if _, ok := msg[f.name]; !ok {
			msg[f.name] = defaultValue(f)
		}
	}
	return msg, nil
}

func memberMismatch(info *complexInfo, next int, header cdr.MemberHeader, offset int) error {
	if next < len(info.fields) {
		f := info.fields[next]
		return fieldError(info, f.name, offset, fmt.Errorf(
			"%w: expected member id %d (%s), found must-understand member id %d",
			ErrMemberHeaderMismatch, f.id, f.name, header.ID,
		))
	}
	return fieldError(info, "", offset, fmt.Errorf(
		"%w: found must-understand member id %d after the last member",
		ErrMemberHeaderMismatch, header.ID,
	))
}

func (rd *Reader) readUnion(r *cdr.Reader, info *complexInfo) (map[string]any, error) {
	start := r.Offset()
	if info.usesMemberHeader {
		header := r.MemberHeader()
		if err := r.Error(); err != nil {
			return nil, fieldError(info, DiscriminatorKey, start, err)
		}
		if header.Sentinel || header.Size != uint32(info.switchType.size) {
			return nil, fieldError(info, DiscriminatorKey, start, fmt.Errorf(
				"%w: discriminator header declares %d bytes, %s needs %d",
				ErrMemberHeaderMismatch, header.Size, info.switchType.name, info.switchType.size,
			))
		}
	}
	discriminator := info.switchType.read(r)
	if err := r.Error(); err != nil {
		return nil, fieldError(info, DiscriminatorKey, start, err)
	}
	msg := map[string]any{DiscriminatorKey: discriminator}

	if f := info.caseFor(discriminator); f != nil {
		fieldStart := r.Offset()
		memberEnd := -1
		var header cdr.MemberHeader
		if info.usesMemberHeader {
			header = r.MemberHeader()
			if err := r.Error(); err != nil {
				return nil, fieldError(info, f.name, fieldStart, err)
			}
			memberEnd = r.Offset() + int(header.Size)
			if header.HasNextInt {
				r.Seek(r.Offset() - 4)
			}
		}
		if !header.Sentinel {
			value, err := rd.readField(r, f, memberEnd)
			if err == nil && memberEnd >= 0 {
				err = finishMember(r, header.ID, memberEnd)
			}
			if err != nil {
				return nil, fieldError(info, f.name, fieldStart, err)
			}
			msg[f.name] = value
		} else {
			msg[f.name] = defaultValue(f)
			return msg, nil
		}
	}

	if info.usesMemberHeader && r.PeekSentinelHeader() {
		r.MemberHeader()
	}
	return msg, r.Error()
}

// readField reads one member value. memberEnd is the end offset declared
// by the member's header, or -1.
func (rd *Reader) readField(r *cdr.Reader, f *fieldInfo, memberEnd int) (any, error) {
	var value any
	var err error
	switch {
	case f.isFixedArray():
		value, err = rd.readFixedArray(r, f, f.arrayLengths)
	case f.isArray:
		n := r.SequenceLength()
		if err := r.Error(); err != nil {
			return nil, err
		}
		if int64(n) > int64(r.Remaining()) {
			return nil, fmt.Errorf("%w: sequence length %d exceeds the %d remaining bytes",
				cdr.ErrUnexpectedEOF, n, r.Remaining())
		}
		value, err = rd.readArray(r, f, int(n))
	default:
		value, err = rd.readSingle(r, f, memberEnd)
	}
	if err != nil {
		return nil, err
	}
	return value, r.Error()
}

func (rd *Reader) readFixedArray(r *cdr.Reader, f *fieldInfo, dims []int) (any, error) {
	if len(dims) == 1 {
		return rd.readArray(r, f, dims[0])
	}
	out := make([]any, dims[0])
	for ii := range out {
		inner, err := rd.readFixedArray(r, f, dims[1:])
		if err != nil {
			return nil, err
		}
		out[ii] = inner
	}
	return out, nil
}

func (rd *Reader) readArray(r *cdr.Reader, f *fieldInfo, n int) (any, error) {
	switch f.kind {
	case kindPrimitive:
		return f.primitive.readArray(r, n), nil
	case kindString:
		out := make([]string, n)
		for ii := range out {
			out[ii] = r.String()
		}
		return out, nil
	}
	out := make([]any, n)
	for ii := range out {
		msg, err := rd.readComplex(r, f.complex, -1)
		if err != nil {
			return nil, err
		}
		out[ii] = msg
	}
	return out, nil
}

func (rd *Reader) readSingle(r *cdr.Reader, f *fieldInfo, memberEnd int) (any, error) {
	switch f.kind {
	case kindPrimitive:
		return f.primitive.read(r), nil
	case kindString:
		return r.String(), nil
	}
	return rd.readComplex(r, f.complex, memberEnd)
}
