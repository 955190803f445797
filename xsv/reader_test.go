// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package xsv

import (
	"io"
	"reflect"
	"strings"
	"testing"
)

func readAll(t *testing.T, r *Reader) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("read: %s", err)
		}
		rows = append(rows, row)
	}
}

func TestReadRows(t *testing.T) {
	for _, td := range []struct {
		name  string
		input string
		sep   Delim
		want  []Row
	}{
		{
			name:  "plain",
			input: "a,b,c\n1,2,3\n",
			want:  []Row{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "tabs",
			input: "a\tb\tc\n1\t2\t3\n",
			sep:   '\t',
			want:  []Row{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "quoted separator",
			input: "x,\"a,b\",z\n",
			want:  []Row{{"x", "a,b", "z"}},
		},
		{
			name:  "escaped quote",
			input: "\"say \"\"hi\"\"\",y\n",
			want:  []Row{{`say "hi"`, "y"}},
		},
		{
			name:  "embedded newline",
			input: "\"line1\nline2\",y\n",
			want:  []Row{{"line1\nline2", "y"}},
		},
		{
			name:  "ragged rows",
			input: "a,b,c\nx\np,q\n",
			want:  []Row{{"a", "b", "c"}, {"x"}, {"p", "q"}},
		},
		{
			name:  "crlf",
			input: "a,b\r\nc,d\r\n",
			want:  []Row{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "no trailing newline",
			input: "a,b",
			want:  []Row{{"a", "b"}},
		},
		{
			name:  "lone empty field quoted",
			input: "\"\"\nx\n",
			want:  []Row{{""}, {"x"}},
		},
	} {
		t.Run(td.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(td.input), td.sep)
			rows := readAll(t, r)
			if !reflect.DeepEqual(rows, td.want) {
				t.Fatalf("got %q, expected %q", rows, td.want)
			}
		})
	}
}

func TestReaderReset(t *testing.T) {
	r := NewReader(strings.NewReader("a,b\n"), 0)
	if got := readAll(t, r); len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	r.Reset(strings.NewReader("c,d\ne,f\n"))
	got := readAll(t, r)
	want := []Row{{"c", "d"}, {"e", "f"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("after reset: got %q, expected %q", got, want)
	}
}

func TestRowClone(t *testing.T) {
	orig := Row{"a", "b"}
	dup := orig.Clone()
	dup[0] = "changed"
	if orig[0] != "a" {
		t.Fatal("clone aliases the original row")
	}
}
