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
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/SnellerInc/xsort"
	"github.com/SnellerInc/xsort/xsv"
)

// columnList collects repeated -c flags.
type columnList []xsort.ColumnSpec

func (c *columnList) String() string {
	parts := make([]string, len(*c))
	for i := range *c {
		parts[i] = (*c)[i].String()
	}
	return strings.Join(parts, ",")
}

func (c *columnList) Set(s string) error {
	*c = append(*c, xsort.ParseColumn(s))
	return nil
}

var (
	columns    columnList
	dashv      bool
	dashh      bool
	dashn      bool
	dashs      float64
	dasho      string
	dashd      string
	dashq      string
	dashe      string
	dashz      string
	dashj      int
	dashf      string
	dashtmp    string
	dashfanin  int
	dashverify bool
)

func init() {
	flag.Var(&columns, "c", "sort column: a header name or a 0-based position; repeat for a multi-column key")
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.BoolVar(&dashn, "n", false, "input has no header row")
	flag.Float64Var(&dashs, "s", 100, "maximum chunk size in MiB")
	flag.StringVar(&dasho, "o", "", "output file (default: overwrite the input)")
	flag.StringVar(&dashd, "d", "", "field delimiter (single character, or \\t for tab; default comma)")
	flag.StringVar(&dashq, "q", "", "output quoting policy: minimal, all or none")
	flag.StringVar(&dashe, "e", "", "character encoding (default utf-8)")
	flag.StringVar(&dashz, "z", "", "scratch file compression: none, zstd or s2")
	flag.IntVar(&dashj, "j", 1, "chunks to sort concurrently")
	flag.StringVar(&dashf, "f", "", "job file (yaml or json) describing the sort")
	flag.StringVar(&dashtmp, "tmp", "", "directory for the scratch workspace (default: system temp)")
	flag.IntVar(&dashfanin, "fanin", 0, "files merged at a time (default 2)")
	flag.BoolVar(&dashverify, "verify", false, "fingerprint rows in and out and fail on any difference")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

var hsizes = []byte{'K', 'M', 'G', 'T', 'P', 'E'}

func human(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	f := float64(size)
	i := -1
	for f >= 1024 && i < len(hsizes)-1 {
		f /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %ciB", f, hsizes[i])
}

func fromFlags() (*xsort.Config, error) {
	sep, err := xsv.ParseDelim(dashd)
	if err != nil {
		return nil, err
	}
	q, err := xsv.ParseQuoting(dashq)
	if err != nil {
		return nil, err
	}
	return &xsort.Config{
		Columns:      columns,
		Output:       dasho,
		MaxChunkSize: int64(dashs * (1 << 20)),
		NoHeader:     dashn,
		Separator:    sep,
		Quoting:      q,
		Encoding:     dashe,
		FanIn:        dashfanin,
		Compression:  dashz,
		Threads:      dashj,
		TempDir:      dashtmp,
		Verify:       dashverify,
	}, nil
}

func main() {
	flag.Parse()
	args := flag.Args()
	if dashh || (len(args) == 0 && dashf == "") {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s -c <column> [-c <column>]... [options] <input>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        sort <input> by the given columns\n")
		fmt.Fprintf(os.Stderr, "    %s [options] -f <job.yaml>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        run the sort described by a job file\n")
		fmt.Fprintf(os.Stderr, "flag usage:\n")
		flag.Usage()
		os.Exit(1)
	}

	var (
		conf  *xsort.Config
		input string
		err   error
	)
	if dashf != "" {
		if len(args) != 0 {
			exitf("-f takes the input from the job file; unexpected argument %q\n", args[0])
		}
		job, err := xsort.OpenJob(dashf)
		if err != nil {
			exitf("%s\n", err)
		}
		conf, err = job.Config()
		if err != nil {
			exitf("%s: %s\n", dashf, err)
		}
		input = job.Input
	} else {
		if len(args) != 1 {
			exitf("usage: %s -c <column> [options] <input>\n", os.Args[0])
		}
		if len(columns) == 0 {
			exitf("at least one -c <column> is required\n")
		}
		conf, err = fromFlags()
		if err != nil {
			exitf("%s\n", err)
		}
		input = args[0]
	}
	if dashv {
		conf.Logf = logf
	}

	res, err := conf.Sort(input)
	if err != nil {
		exitf("xsort: %s\n", err)
	}
	if dashv {
		size := ""
		if fi, err := os.Stat(res.Output); err == nil {
			size = ", " + human(fi.Size())
		}
		logf("%s: %d row(s), %d chunk(s), %d merge(s)%s",
			res.Output, res.Rows, res.Chunks, res.Merges, size)
	}
}
