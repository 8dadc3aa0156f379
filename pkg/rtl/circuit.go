// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package rtl

// Port is a single declared module port.
type Port struct {
	Name string
	Type Type
	Dir  Direction
}

// Parameter is a named string-valued parameter of an ExternalModule.
type Parameter struct {
	Name  string
	Value string
}

// Module is the sum type of top-level module declarations.
type Module interface {
	isModule()
	ModuleName() string
}

// UserModule is a module with a body defined in this circuit.
type UserModule struct {
	Id         string
	Ports      []Port
	Statements []Statement
}

// ModuleName returns the module's declared name.
func (m UserModule) ModuleName() string { return m.Id }

// ExternalModule is a module whose body is defined elsewhere (a black box);
// only its port signature and parameters are known here.
type ExternalModule struct {
	DefinedName string
	Ports       []Port
	Parameters  []Parameter
}

// ModuleName returns the module's declared name.
func (m ExternalModule) ModuleName() string { return m.DefinedName }

func (UserModule) isModule()     {}
func (ExternalModule) isModule() {}

// Circuit is the top-level decoded RTL message: one designated top module
// name, plus every module (user-defined or external) in the circuit.
type Circuit struct {
	Top     string
	Modules []Module
}
