package cache

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// memoryHook 在进程内处理 GET/SET，不建立真实连接
type memoryHook struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryRedis(t *testing.T, prefix string) *memoryHook {
	t.Helper()
	hook := &memoryHook{values: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(hook)
	UseClient(client, prefix)
	t.Cleanup(func() {
		UseClient(nil, "")
		_ = client.Close()
	})
	return hook
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("dial disabled in tests: %s", addr)
	}
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		args := cmd.Args()
		if len(args) < 2 {
			return fmt.Errorf("unsupported command: %v", args)
		}
		key := fmt.Sprint(args[1])
		switch strings.ToLower(cmd.Name()) {
		case "get":
			value, ok := h.values[key]
			if !ok {
				return redis.Nil
			}
			cmd.(*redis.StringCmd).SetVal(value)
			return nil
		case "set":
			switch value := args[2].(type) {
			case []byte:
				h.values[key] = string(value)
			default:
				h.values[key] = fmt.Sprint(value)
			}
			cmd.(*redis.StatusCmd).SetVal("OK")
			return nil
		case "del":
			delete(h.values, key)
			cmd.(*redis.IntCmd).SetVal(1)
			return nil
		}
		return fmt.Errorf("unsupported command: %s", cmd.Name())
	}
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return fmt.Errorf("pipeline disabled in tests")
	}
}

func (h *memoryHook) stored(key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	value, ok := h.values[key]
	return value, ok
}
