// Package wire implements the pygit object-exchange protocol: a
// one-request-per-connection TCP server and a matching client for
// HAVE/PUSH/PULL/CLONE, plus the commit-graph closure helpers both
// sides need to decide which objects to send.
package wire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"pygit/pkg/objects"
)

// DefaultPort is the wire protocol's standard TCP port.
const DefaultPort = 8471

// compressThreshold is the envelope size, in bytes, at or above which an
// object frame is sent zstd-compressed (OBJZ) instead of raw (OBJ). The
// threshold applies to the on-wire envelope, never to the object's
// identity: the envelope is decompressed before rehashing, so a
// compressed and an uncompressed transfer of the same object produce
// identical stored bytes.
const compressThreshold = 1 << 20

// writeLine writes one protocol line, e.g. "COMMAND arg1 arg2\n".
func writeLine(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}

// encodeEnvelope builds the same "type length\0payload" framing the
// object store persists on disk, so a transmitted object can be handed
// straight to objects.Store.Put without the receiver re-deriving it.
func encodeEnvelope(t objects.Type, payload []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d\x00", t, len(payload))
	buf.Write(payload)
	return buf.Bytes()
}

func decodeEnvelope(raw []byte) (objects.Type, []byte, error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: envelope missing separator", ErrProtocol)
	}
	header := string(raw[:nul])
	typ, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed envelope header %q", ErrProtocol, header)
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: malformed envelope length %q", ErrProtocol, lenStr)
	}
	payload := raw[nul+1:]
	if len(payload) != n {
		return "", nil, fmt.Errorf("%w: envelope declares length %d, got %d", ErrProtocol, n, len(payload))
	}
	return objects.Type(typ), payload, nil
}

// writeObjectFrame writes one object record: "OBJ <id> <length>\n"
// followed by length raw envelope bytes and a trailing "\n", or the
// OBJZ variant with a zstd-compressed envelope once it crosses
// compressThreshold.
func writeObjectFrame(w io.Writer, id objects.Hash, t objects.Type, payload []byte) error {
	envelope := encodeEnvelope(t, payload)

	if len(envelope) < compressThreshold {
		if err := writeLine(w, "OBJ %s %d", id, len(envelope)); err != nil {
			return err
		}
		if _, err := w.Write(envelope); err != nil {
			return err
		}
		_, err := w.Write([]byte("\n"))
		return err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("wire: zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(envelope, nil)
	enc.Close()

	if err := writeLine(w, "OBJZ %s %d", id, len(compressed)); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// readObjectFrame reads one OBJ or OBJZ record, returning the object's
// id, type and payload ready to pass to objects.Store.Put. It returns
// (ZeroHash, "", nil, nil) when the next line is "DONE".
func readObjectFrame(r *bufio.Reader) (objects.Hash, objects.Type, []byte, error) {
	line, err := readLine(r)
	if err != nil {
		return objects.ZeroHash, "", nil, err
	}
	if line == "DONE" {
		return objects.ZeroHash, "", nil, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 3 || (fields[0] != "OBJ" && fields[0] != "OBJZ") {
		return objects.ZeroHash, "", nil, fmt.Errorf("%w: malformed object frame header %q", ErrProtocol, line)
	}
	id, err := objects.ParseHash(fields[1])
	if err != nil {
		return objects.ZeroHash, "", nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	length, err := strconv.Atoi(fields[2])
	if err != nil {
		return objects.ZeroHash, "", nil, fmt.Errorf("%w: malformed length %q", ErrProtocol, fields[2])
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return objects.ZeroHash, "", nil, fmt.Errorf("wire: read object body: %w", err)
	}
	if _, err := r.Discard(1); err != nil {
		return objects.ZeroHash, "", nil, fmt.Errorf("wire: read frame terminator: %w", err)
	}

	envelope := body
	if fields[0] == "OBJZ" {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return objects.ZeroHash, "", nil, fmt.Errorf("wire: zstd decoder: %w", err)
		}
		envelope, err = dec.DecodeAll(body, nil)
		dec.Close()
		if err != nil {
			return objects.ZeroHash, "", nil, fmt.Errorf("wire: zstd decode: %w", err)
		}
	}

	typ, payload, err := decodeEnvelope(envelope)
	if err != nil {
		return objects.ZeroHash, "", nil, err
	}
	return id, typ, payload, nil
}
