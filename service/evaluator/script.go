/*
 * @module service/evaluator/script
 * @description 派生字段脚本执行器，基于 Yaegi 解释执行并按脚本哈希缓存编译结果
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 脚本内容 -> sha1 -> 缓存命中/编译 -> Run(params)
 * @rules 脚本体即 Run 函数体，可使用 attributes、classifications、asset_type 变量；编译失败或运行时 panic 不影响其他字段
 * @dependencies github.com/traefik/yaegi
 * @refs service/evaluator/field_evaluator.go
 */

package evaluator

import (
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// compiledScript 编译后的脚本
type compiledScript struct {
	fn       func(map[string]interface{}) (interface{}, error)
	compiled time.Time
}

// ScriptExecutor 派生脚本执行器
type ScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*compiledScript
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{cache: make(map[string]*compiledScript)}
}

const scriptWrapper = `
package main

import "strings"

var _ = strings.TrimSpace

func Run(params map[string]interface{}) (interface{}, error) {
	attributes, _ := params["attributes"].(map[string]interface{})
	classifications, _ := params["classifications"].([]string)
	assetType, _ := params["asset_type"].(string)
	_, _, _ = attributes, classifications, assetType

%s
}
`

// Execute 执行脚本，脚本内的 panic 转换为错误返回
func (e *ScriptExecutor) Execute(script string, params map[string]interface{}) (result interface{}, err error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	compiled, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		compiled, err = e.compile(script)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("脚本执行异常: %v", r)
		}
	}()
	return compiled.fn(params)
}

func (e *ScriptExecutor) compile(script string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}
	if _, err := i.Eval(fmt.Sprintf(scriptWrapper, script)); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}
	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Run 函数: %w", err)
	}
	fn, ok := v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run 函数签名必须是 func(map[string]interface{}) (interface{}, error)")
	}
	return &compiledScript{fn: fn, compiled: time.Now()}, nil
}

// Validate 校验脚本能否编译
func (e *ScriptExecutor) Validate(script string) error {
	_, err := e.compile(script)
	return err
}

// CacheSize 已缓存的编译脚本数量
func (e *ScriptExecutor) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// ClearCache 清理缓存
func (e *ScriptExecutor) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*compiledScript)
}
