package ord

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// MaxScriptElementSize is the largest data push btcd's standardness
// rules allow inside a single script element, matching Bitcoin
// Core's MAX_SCRIPT_ELEMENT_SIZE.
const MaxScriptElementSize = 520

// ErrMalformedEnvelope is returned by ParseEnvelope when the supplied
// script does not contain a well-formed ord envelope.
var ErrMalformedEnvelope = errors.New("malformed inscription envelope")

// AppendEnvelope appends an inscription envelope to builder:
//
//	OP_FALSE OP_IF "ord" OP_1 <content-type> OP_0 <body chunk>... OP_ENDIF
//
// Body is split into pushes of at most MaxScriptElementSize bytes. An
// empty body still emits the OP_0 marker with zero following pushes.
// AppendEnvelope is total: it never fails, matching spec's contract
// that envelope encoding has no failure paths.
func AppendEnvelope(builder *txscript.ScriptBuilder, insc Inscription) *txscript.ScriptBuilder {
	builder.
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData([]byte("ord")).
		AddOp(txscript.OP_1).
		AddData(insc.ContentType).
		AddOp(txscript.OP_0)

	for _, chunk := range chunkBody(insc.Body) {
		if len(chunk) == 1 {
			// AddFullData would rewrite a lone byte 0x00-0x10 or 0x81
			// as a small-integer opcode, which is not a data push.
			builder.AddOp(txscript.OP_DATA_1).AddOp(chunk[0])
			continue
		}
		builder.AddFullData(chunk)
	}

	builder.AddOp(txscript.OP_ENDIF)

	return builder
}

// chunkBody splits body into pushes of at most MaxScriptElementSize
// bytes each.
func chunkBody(body []byte) [][]byte {
	if len(body) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(body)/MaxScriptElementSize)+1)
	for start := 0; start < len(body); start += MaxScriptElementSize {
		end := start + MaxScriptElementSize
		if end > len(body) {
			end = len(body)
		}
		chunks = append(chunks, body[start:end])
	}
	return chunks
}

// RevealScript builds the leaf script spent by the reveal transaction:
// the provided public-key-check prefix followed by the inscription
// envelope, per spec §4.4 ("key-check opcode first, then the envelope
// appended").
func RevealScript(prefix *txscript.ScriptBuilder, insc Inscription) ([]byte, error) {
	AppendEnvelope(prefix, insc)
	return prefix.Script()
}

// envelope opcode/value constants used by the hand-rolled parser
// below. These mirror the opcodes AppendEnvelope emits; OP_FALSE and
// OP_0 share the same opcode value (0x00) in script, same as in
// Bitcoin Script generally.
const (
	opFalse  = txscript.OP_FALSE
	opIf     = txscript.OP_IF
	opOne    = txscript.OP_1
	opZero   = txscript.OP_0
	opEndIf  = txscript.OP_ENDIF
	opData1  = txscript.OP_DATA_1
	opData75 = txscript.OP_DATA_75
	opPData1 = txscript.OP_PUSHDATA1
	opPData2 = txscript.OP_PUSHDATA2
	opPData4 = txscript.OP_PUSHDATA4
)

// nextPush decodes the push operation (if any) starting at script[i],
// returning the pushed data and the index immediately following it.
// ok is false if script[i] is not a recognized push opcode.
func nextPush(script []byte, i int) (data []byte, next int, ok bool) {
	if i >= len(script) {
		return nil, i, false
	}

	op := script[i]
	switch {
	case op == 0x00:
		// OP_0 / OP_FALSE: pushes the empty byte array.
		return nil, i + 1, true

	case op >= opData1 && op <= opData75:
		n := int(op)
		start := i + 1
		if start+n > len(script) {
			return nil, i, false
		}
		return script[start : start+n], start + n, true

	case op == opPData1:
		if i+2 > len(script) {
			return nil, i, false
		}
		n := int(script[i+1])
		start := i + 2
		if start+n > len(script) {
			return nil, i, false
		}
		return script[start : start+n], start + n, true

	case op == opPData2:
		if i+3 > len(script) {
			return nil, i, false
		}
		n := int(script[i+1]) | int(script[i+2])<<8
		start := i + 3
		if start+n > len(script) {
			return nil, i, false
		}
		return script[start : start+n], start + n, true

	case op == opPData4:
		if i+5 > len(script) {
			return nil, i, false
		}
		n := int(script[i+1]) | int(script[i+2])<<8 | int(script[i+3])<<16 | int(script[i+4])<<24
		start := i + 5
		if start+n > len(script) {
			return nil, i, false
		}
		return script[start : start+n], start + n, true

	default:
		return nil, i, false
	}
}

// ParseEnvelope recovers the Inscription encoded in script by a prior
// call to AppendEnvelope, regardless of what precedes the envelope
// (e.g. a pubkey-check prefix). It is the inverse of AppendEnvelope
// and exists to make the envelope round-trip property in spec §8
// independently testable.
func ParseEnvelope(script []byte) (Inscription, error) {
	start := -1
	for i := 0; i+1 < len(script); {
		if script[i] == byte(opFalse) && script[i+1] == byte(opIf) {
			start = i
			break
		}
		// Step over pushed data so bytes inside an element (such as a
		// prefix's x-only key) are never read as opcodes.
		if _, next, ok := nextPush(script, i); ok {
			i = next
		} else {
			i++
		}
	}
	if start == -1 {
		return Inscription{}, fmt.Errorf("%w: no envelope start", ErrMalformedEnvelope)
	}

	i := start + 2

	tag, next, ok := nextPush(script, i)
	if !ok || string(tag) != "ord" {
		return Inscription{}, fmt.Errorf("%w: missing ord tag", ErrMalformedEnvelope)
	}
	i = next

	if i >= len(script) || script[i] != byte(opOne) {
		return Inscription{}, fmt.Errorf("%w: missing content-type marker", ErrMalformedEnvelope)
	}
	i++

	contentType, next, ok := nextPush(script, i)
	if !ok {
		return Inscription{}, fmt.Errorf("%w: missing content-type push", ErrMalformedEnvelope)
	}
	i = next

	if i >= len(script) || script[i] != byte(opZero) {
		return Inscription{}, fmt.Errorf("%w: missing body marker", ErrMalformedEnvelope)
	}
	i++

	var body []byte
	for i < len(script) && script[i] != byte(opEndIf) {
		chunk, next, ok := nextPush(script, i)
		if !ok {
			return Inscription{}, fmt.Errorf("%w: unexpected opcode in body", ErrMalformedEnvelope)
		}
		body = append(body, chunk...)
		i = next
	}

	if i >= len(script) || script[i] != byte(opEndIf) {
		return Inscription{}, fmt.Errorf("%w: missing OP_ENDIF", ErrMalformedEnvelope)
	}

	return Inscription{ContentType: contentType, Body: body}, nil
}
