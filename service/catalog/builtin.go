/*
 * @module service/catalog/builtin
 * @description 内置评估目录，随二进制嵌入
 * @architecture 领域模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 嵌入YAML -> 解码 -> 校验 -> 目录
 * @rules 内置目录必须始终可加载
 * @dependencies embed
 * @refs service/catalog/builtin.yaml
 */

package catalog

import (
	"bytes"
	_ "embed"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Builtin 加载内置目录
func Builtin() (*Catalog, error) {
	return LoadYAML(bytes.NewReader(builtinYAML))
}

// MustBuiltin 加载内置目录，失败时 panic
func MustBuiltin() *Catalog {
	c, err := Builtin()
	if err != nil {
		panic(err)
	}
	return c
}
