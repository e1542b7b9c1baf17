// Package fieldpath resolve caminhos pontuados ("contato.email") em registros
// aninhados sem esquema fixo.
package fieldpath

import (
	"reflect"
	"strings"
)

var mapType = reflect.TypeOf(map[string]any(nil))

// Resolve devolve o primeiro valor textual não vazio encontrado entre os
// caminhos candidatos, na ordem informada. Caminhos anteriores têm prioridade.
// Valores que não são string (números, booleanos, mapas) contam como ausentes.
func Resolve(record map[string]any, paths []string) (string, bool) {
	if record == nil {
		return "", false
	}
	for _, path := range paths {
		if value, ok := lookup(record, path); ok {
			return value, true
		}
	}
	return "", false
}

func lookup(record map[string]any, path string) (string, bool) {
	if path == "" {
		return "", false
	}

	segments := strings.Split(path, ".")
	var current any = record
	for _, segment := range segments {
		node, ok := asMap(current)
		if !ok || node == nil {
			return "", false
		}
		current, ok = node[segment]
		if !ok {
			return "", false
		}
	}

	str, ok := current.(string)
	if !ok {
		return "", false
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return "", false
	}
	return str, true
}

// asMap aceita map[string]any e tipos nomeados sobre ele, como
// docstore.Record ou bson.M.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || !rv.Type().ConvertibleTo(mapType) {
		return nil, false
	}
	return rv.Convert(mapType).Interface().(map[string]any), true
}
