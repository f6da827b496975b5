package codec

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" msgpack:"name"`
	Limit int    `json:"limit" msgpack:"limit"`
}

func TestJSONRoundTrip(t *testing.T) {
	c := JSON[sample]{}
	in := sample{Name: "rate", Limit: 42}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil || out != in {
		t.Fatalf("Decode: out=%+v err=%v", out, err)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	c := Msgpack[sample]{}
	in := sample{Name: "rate", Limit: 42}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil || out != in {
		t.Fatalf("Decode: out=%+v err=%v", out, err)
	}
}

func TestCBORRoundTrip(t *testing.T) {
	c := MustCBOR[sample](true)
	in := sample{Name: "rate", Limit: 42}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil || out != in {
		t.Fatalf("Decode: out=%+v err=%v", out, err)
	}
}

func TestStringCodec(t *testing.T) {
	c := String{}
	b, _ := c.Encode("hello")
	s, err := c.Decode(b)
	if err != nil || s != "hello" {
		t.Fatalf("round trip: %q err=%v", s, err)
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte(strings.Repeat("x", 5))); err == nil {
		t.Fatalf("oversized payload must be rejected")
	}
	if s, err := c.Decode([]byte("ok")); err != nil || s != "ok" {
		t.Fatalf("small payload: %q err=%v", s, err)
	}
}
