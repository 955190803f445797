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

package main

import (
	"testing"

	"github.com/SnellerInc/xsort"
)

func TestColumnList(t *testing.T) {
	var c columnList
	for _, s := range []string{"country", "2", "007", "-1", "price"} {
		if err := c.Set(s); err != nil {
			t.Fatalf("set %q: %s", s, err)
		}
	}
	want := []xsort.ColumnSpec{
		xsort.ColName("country"),
		xsort.Col(2),
		xsort.Col(7),
		xsort.ColName("-1"),
		xsort.ColName("price"),
	}
	if len(c) != len(want) {
		t.Fatalf("got %d columns, expected %d", len(c), len(want))
	}
	for i := range want {
		if c[i] != want[i] {
			t.Fatalf("column %d: got %+v, expected %+v", i, c[i], want[i])
		}
	}
	if s := c.String(); s != "country,2,7,-1,price" {
		t.Fatalf("String: got %q", s)
	}
}

func TestHuman(t *testing.T) {
	for _, td := range []struct {
		size int64
		text string
	}{
		{6, "6 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1024 * 1024, "1.00 MiB"},
		{3 * 1024 * 1024 * 1024 / 2, "1.50 GiB"},
	} {
		t.Run(td.text, func(t *testing.T) {
			if got := human(td.size); got != td.text {
				t.Fatalf("got %q, expected %q", got, td.text)
			}
		})
	}
}
