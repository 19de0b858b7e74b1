package record

import (
	"testing"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abcXYZ019", "abcXYZ019"},
		{"a-b_c.d~e", "a-b_c.d~e"},
		{"hello world", "hello+world"},
		{"a=b&c", "a%3Db%26c"},
		{"\x00\xff", "%00%FF"},
		{"ümlaut", "%C3%BCmlaut"},
		{"%", "%25"},
	}

	for _, c := range cases {
		if got := Encode(c.in); got != c.want {
			t.Errorf("Encode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"hello+world", "hello world"},
		{"%3D%26", "=&"},
		{"%3d%26", "=&"},
		{"%00%FF", "\x00\xff"},
		// malformed sequences pass through literally
		{"%", "%"},
		{"%2", "%2"},
		{"%zz", "%zz"},
		{"100%", "100%"},
		{"a%2Gb", "a%2Gb"},
	}

	for _, c := range cases {
		if got := Decode(c.in); got != c.want {
			t.Errorf("Decode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// Round-trip must be exact for every byte value.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	inputs := []string{
		string(all),
		"plain",
		"with spaces and ümlauts and % signs",
		"a=b&c=d",
	}

	for _, in := range inputs {
		if got := Decode(Encode(in)); got != in {
			t.Errorf("round trip changed %q into %q", in, got)
		}
	}
}

func TestParseForm(t *testing.T) {
	f := ParseForm("a=1&b=two+words&c&&d=%3D")
	want := map[string]string{"a": "1", "b": "two words", "c": "", "d": "="}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("field %q = %q, want %q", k, f[k], v)
		}
	}
	if len(f) != len(want) {
		t.Errorf("parsed %d fields, want %d", len(f), len(want))
	}
}

func TestParseFormLastWins(t *testing.T) {
	f := ParseForm("k=first&k=second&k=third")
	if f["k"] != "third" {
		t.Errorf("duplicate key resolved to %q, want %q", f["k"], "third")
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	pairs := []Pair{
		{"id", "alice"},
		{"name", "Alice M."},
		{"note", "a&b=c %"},
		{"binary", "\x00\x01\xfe"},
	}

	f := ParseForm(BuildForm(pairs))
	for _, p := range pairs {
		if f[p.Key] != p.Value {
			t.Errorf("field %q = %q, want %q", p.Key, f[p.Key], p.Value)
		}
	}
}

func TestFormInt64(t *testing.T) {
	f := ParseForm("a=42&b=-7&c=abc&d=")
	if got := f.Int64("a", 0); got != 42 {
		t.Errorf("a = %d, want 42", got)
	}
	if got := f.Int64("b", 0); got != -7 {
		t.Errorf("b = %d, want -7", got)
	}
	if got := f.Int64("c", 9); got != 9 {
		t.Errorf("c = %d, want fallback 9", got)
	}
	if got := f.Int64("d", 9); got != 9 {
		t.Errorf("d = %d, want fallback 9", got)
	}
	if got := f.Int64("missing", 9); got != 9 {
		t.Errorf("missing = %d, want fallback 9", got)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	a := Account{ID: "alice", Name: "Alice", PasswordHash: "h$1", CreatedAt: 1700000000000}
	got := AccountFromForm(ParseForm(a.Form()))
	if got != a {
		t.Errorf("account round trip: got %+v, want %+v", got, a)
	}

	p := Post{ID: "1-ab", AccountID: "alice", Title: "t & t", Content: "body text", CreatedAt: 3}
	gotP := PostFromForm(ParseForm(p.Form()))
	if gotP != p {
		t.Errorf("post round trip: got %+v, want %+v", gotP, p)
	}

	proj := PostFromForm(ParseForm(p.TitleForm()))
	p.Content = ""
	if proj != p {
		t.Errorf("title projection: got %+v, want %+v", proj, p)
	}
}
