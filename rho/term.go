// Package rho encodes the subset of the platform's structured terms (the
// rhoapi Par/Expr messages) needed to build signing payloads on the client.
//
// Terms are serialized with the protobuf wire format, field by field in
// declaration order, exactly as the node does before verifying a signature.
// Only the expression kinds the client produces are modelled; unknown fields
// are skipped when decoding.
package rho

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from rhoapi.proto.
const (
	parExprs protowire.Number = 5

	exprGBool      protowire.Number = 1
	exprGInt       protowire.Number = 2
	exprGString    protowire.Number = 3
	exprGURI       protowire.Number = 4
	exprEList      protowire.Number = 20
	exprETuple     protowire.Number = 21
	exprGByteArray protowire.Number = 25

	collectionPs protowire.Number = 1
)

// Kind identifies which expression an Expr carries.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindString
	KindURI
	KindBytes
	KindTuple
	KindList
)

var ErrMalformedTerm = errors.New("malformed term")

// Par is a parallel composition of expressions.
type Par struct {
	Exprs []Expr
}

// Expr is a single ground or collection expression.
type Expr struct {
	Kind   Kind
	Bool   bool
	Int    int64
	String string
	Bytes  []byte
	Ps     []Par
}

// Int wraps an integer as a single-expression Par.
func Int(v int64) Par { return Par{Exprs: []Expr{{Kind: KindInt, Int: v}}} }

// Bool wraps a boolean as a single-expression Par.
func Bool(v bool) Par { return Par{Exprs: []Expr{{Kind: KindBool, Bool: v}}} }

// String wraps a string as a single-expression Par.
func String(v string) Par { return Par{Exprs: []Expr{{Kind: KindString, String: v}}} }

// URI wraps a registry URI as a single-expression Par.
func URI(v string) Par { return Par{Exprs: []Expr{{Kind: KindURI, String: v}}} }

// Bytes wraps a byte array as a single-expression Par.
func Bytes(v []byte) Par { return Par{Exprs: []Expr{{Kind: KindBytes, Bytes: v}}} }

// Tuple builds a tuple of the given elements.
func Tuple(ps ...Par) Par { return Par{Exprs: []Expr{{Kind: KindTuple, Ps: ps}}} }

// List builds a list of the given elements.
func List(ps ...Par) Par { return Par{Exprs: []Expr{{Kind: KindList, Ps: ps}}} }

// Marshal encodes p with the protobuf wire format.
func (p Par) Marshal() []byte {
	return p.appendTo(nil)
}

func (p Par) appendTo(b []byte) []byte {
	for _, e := range p.Exprs {
		b = protowire.AppendTag(b, parExprs, protowire.BytesType)
		b = protowire.AppendBytes(b, e.appendTo(nil))
	}
	return b
}

// Oneof members are always emitted, zero values included.
func (e Expr) appendTo(b []byte) []byte {
	switch e.Kind {
	case KindBool:
		b = protowire.AppendTag(b, exprGBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(e.Bool))
	case KindInt:
		b = protowire.AppendTag(b, exprGInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(e.Int))
	case KindString:
		b = protowire.AppendTag(b, exprGString, protowire.BytesType)
		b = protowire.AppendString(b, e.String)
	case KindURI:
		b = protowire.AppendTag(b, exprGURI, protowire.BytesType)
		b = protowire.AppendString(b, e.String)
	case KindBytes:
		b = protowire.AppendTag(b, exprGByteArray, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Bytes)
	case KindTuple:
		b = protowire.AppendTag(b, exprETuple, protowire.BytesType)
		b = protowire.AppendBytes(b, appendCollection(nil, e.Ps))
	case KindList:
		b = protowire.AppendTag(b, exprEList, protowire.BytesType)
		b = protowire.AppendBytes(b, appendCollection(nil, e.Ps))
	}
	return b
}

func appendCollection(b []byte, ps []Par) []byte {
	for _, p := range ps {
		b = protowire.AppendTag(b, collectionPs, protowire.BytesType)
		b = protowire.AppendBytes(b, p.appendTo(nil))
	}
	return b
}

// Unmarshal decodes a Par produced by Marshal (or by the node).
func Unmarshal(b []byte) (Par, error) {
	var p Par
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Par{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
		}
		b = b[n:]

		if num == parExprs && typ == protowire.BytesType {
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Par{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
			}
			e, err := unmarshalExpr(raw)
			if err != nil {
				return Par{}, err
			}
			p.Exprs = append(p.Exprs, e)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return Par{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return p, nil
}

func unmarshalExpr(b []byte) (Expr, error) {
	var e Expr
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Expr{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == exprGBool && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Expr{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
			}
			e = Expr{Kind: KindBool, Bool: protowire.DecodeBool(v)}
			b = b[n:]
		case num == exprGInt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Expr{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
			}
			e = Expr{Kind: KindInt, Int: protowire.DecodeZigZag(v)}
			b = b[n:]
		case (num == exprGString || num == exprGURI || num == exprGByteArray ||
			num == exprETuple || num == exprEList) && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Expr{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
			}
			var err error
			if e, err = bytesExpr(num, raw); err != nil {
				return Expr{}, err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Expr{}, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if e.Kind == 0 {
		return Expr{}, fmt.Errorf("%w: unsupported expression", ErrMalformedTerm)
	}
	return e, nil
}

func bytesExpr(num protowire.Number, raw []byte) (Expr, error) {
	switch num {
	case exprGString:
		return Expr{Kind: KindString, String: string(raw)}, nil
	case exprGURI:
		return Expr{Kind: KindURI, String: string(raw)}, nil
	case exprGByteArray:
		return Expr{Kind: KindBytes, Bytes: append([]byte{}, raw...)}, nil
	}

	ps, err := unmarshalCollection(raw)
	if err != nil {
		return Expr{}, err
	}
	if num == exprETuple {
		return Expr{Kind: KindTuple, Ps: ps}, nil
	}
	return Expr{Kind: KindList, Ps: ps}, nil
}

func unmarshalCollection(b []byte) ([]Par, error) {
	var ps []Par
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
		}
		b = b[n:]

		if num == collectionPs && typ == protowire.BytesType {
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
			}
			p, err := Unmarshal(raw)
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTerm, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return ps, nil
}
