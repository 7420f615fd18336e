package jack

import (
	"fmt"
	"strings"

	"hacktoolchain.dev/n2t/pkg/utils"
)

type Scope struct {
	name    string
	entries utils.Stack[Variable]
}

type ScopeTable struct {
	static utils.Stack[Variable]

	local     Scope
	field     Scope
	parameter Scope

	subroutineType SubroutineType // Tracks the current subroutine kind, used to hide 'field' scope from Function
}

func NewScopeTable() *ScopeTable {
	return &ScopeTable{
		static:    utils.Stack[Variable]{},
		local:     Scope{},
		field:     Scope{},
		parameter: Scope{},
	}
}

func (st *ScopeTable) PushClassScope(class string) {
	newScope := fmt.Sprintf("%s.Global", class)
	st.field = Scope{name: newScope, entries: utils.Stack[Variable]{}}
	st.static = utils.Stack[Variable]{} // Static indices are per-class, reset them on every new class
}

func (st *ScopeTable) PopClassScope() { st.field = Scope{} }

func (st *ScopeTable) PushSubRoutineScope(method string, kind SubroutineType) {
	newScope := strings.ReplaceAll(st.GetScope(), "Global", method)
	st.local = Scope{name: newScope, entries: utils.Stack[Variable]{}}
	st.parameter = Scope{name: newScope, entries: utils.Stack[Variable]{}}
	st.subroutineType = kind
}

func (st *ScopeTable) PopSubroutineScope() {
	st.local, st.parameter = Scope{}, Scope{}
	st.subroutineType = ""
}

func (st *ScopeTable) GetScope() string {
	if st.local.name != "" && st.parameter.name != "" {
		return st.local.name
	}

	if st.field.name != "" {
		return st.field.name
	}

	return "Global"
}

func (st *ScopeTable) RegisterVariable(new Variable) {
	switch new.VarType {
	case Local:
		st.local.entries.Push(new)
	case Field:
		st.field.entries.Push(new)
	case Parameter:
		st.parameter.entries.Push(new)
	case Static:
		st.static.Push(new)
	}
}

func (st *ScopeTable) ResolveVariable(name string) (uint16, Variable, error) {
	scopes := []utils.Stack[Variable]{st.local.entries, st.parameter.entries}
	// Function-type subroutines have no implicit 'this': they must not resolve
	// the class' instance fields, only their own locals/parameters and statics.
	if st.subroutineType != Function {
		scopes = append(scopes, st.field.entries)
	}
	scopes = append(scopes, st.static)

	for _, scope := range scopes {
		found, offset, match := false, 0, Variable{}
		scope.Iterator()(func(idx int, entry Variable) bool {
			if entry.Name == name {
				found, offset, match = true, idx, entry
				return false
			}
			return true
		})
		if found {
			return uint16(offset), match, nil
		}
	}

	return 0, Variable{}, fmt.Errorf("variable '%s' undeclared, not found in any scope", name)
}
