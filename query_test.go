/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sqlens

import "testing"

func TestDescribeLiteral(t *testing.T) {
	s := testSchema(t)
	d, err := Describe(Literal("SELECT id, name FROM users"), s)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Dynamic {
		t.Error("literal text must not be dynamic")
	}
	if d.Kind != KindSelect {
		t.Errorf("kind = %v", d.Kind)
	}
	if d.Result == nil || d.Result.Shape["name"] != TypeString {
		t.Errorf("result = %#v", d.Result)
	}
}

func TestDescribeDynamic(t *testing.T) {
	s := testSchema(t)
	d, err := Describe(Dynamic(), s)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !d.Dynamic {
		t.Fatal("expected Dynamic description")
	}
	if d.Statement != nil || d.Result != nil {
		t.Errorf("dynamic description must carry nothing: %#v", d)
	}
}

func TestDescribeParseFailure(t *testing.T) {
	s := testSchema(t)
	_, err := Describe(Literal("SELECT id"), s)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

func TestCheckLiteral(t *testing.T) {
	s := testSchema(t)
	if err := Check(Literal("SELECT id FROM users"), s, nil); err != nil {
		t.Errorf("Check: %v", err)
	}
	if err := Check(Literal("SELECT ghost FROM users"), s, nil); err == nil {
		t.Error("expected validation error")
	}
}

func TestCheckDynamicAlwaysPasses(t *testing.T) {
	s := testSchema(t)
	if err := Check(Dynamic(), s, nil); err != nil {
		t.Errorf("dynamic text must pass unchecked: %v", err)
	}
}

func TestTextAccessors(t *testing.T) {
	lit := Literal("SELECT 1")
	if lit.IsDynamic() || lit.SQL() != "SELECT 1" {
		t.Errorf("literal = %#v", lit)
	}
	dyn := Dynamic()
	if !dyn.IsDynamic() || dyn.SQL() != "" {
		t.Errorf("dynamic = %#v", dyn)
	}
}
