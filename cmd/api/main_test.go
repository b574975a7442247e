package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/config"
)

func TestOpenRedisFailsWhenUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1
	cfg.Redis.ConnectTimeout = 1

	rdb, err := openRedis(cfg)

	require.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "无法连接到 redis")
}

func TestOpenMailChannelFailsWithBadDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.RabbitMQ.DSN = "not-a-dsn"

	conn, ch, err := openMailChannel(cfg)

	require.Error(t, err)
	assert.Nil(t, conn)
	assert.Nil(t, ch)
}
