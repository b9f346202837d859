/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
)

// MaxIncludeDepth limits nested includes.
var MaxIncludeDepth = 8

var include = regexp.MustCompile(`<!--#include +"([^"]*)" *-->`)

// Inline replaces each '<!--#include "NAME"-->' in a template with
// f(NAME).  Included text is itself searched for includes, up to
// MaxIncludeDepth levels.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	return inline(bs, f, 0)
}

func inline(bs []byte, f func(string) ([]byte, error), depth int) ([]byte, error) {
	if MaxIncludeDepth < depth {
		return nil, fmt.Errorf("includes nested deeper than %d", MaxIncludeDepth)
	}
	var (
		acc  = make([]byte, 0, len(bs))
		last = 0
	)
	for _, loc := range include.FindAllSubmatchIndex(bs, -1) {
		acc = append(acc, bs[last:loc[0]]...)
		name := string(bs[loc[2]:loc[3]])
		included, err := f(name)
		if err != nil {
			return nil, err
		}
		if included, err = inline(included, f, depth+1); err != nil {
			return nil, err
		}
		acc = append(acc, included...)
		last = loc[1]
	}
	return append(acc, bs[last:]...), nil
}

// ReadFileWithInlines is a replacement for ioutil.ReadFile that
// Inline()s files relative to the file's directory.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(filename)
	f := func(name string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, name))
	}

	return Inline(bs, f)
}
