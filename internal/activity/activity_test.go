package activity

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ypb/phonebook/pkg/logger"
)

func TestRedisSink(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	sink := NewRedisSink(redis.NewClient(&redis.Options{Addr: m.Addr()}), 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		sink.Info(ctx, fmt.Sprintf("search %d", i))
	}
	sink.Update(ctx, "page created")

	got, err := sink.Recent(ctx, ChannelInfo, 10)
	require.NoError(t, err)
	require.Len(t, got, 3, "list is capped")
	assert.Equal(t, "search 4", got[0].Message)
	assert.Equal(t, "search 2", got[2].Message)
	assert.WithinDuration(t, time.Now(), got[0].At, time.Minute)

	got, err = sink.Recent(ctx, ChannelUpdate, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "page created", got[0].Message)
}

func TestRedisSink_DownDoesNotPanic(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	sink := NewRedisSink(redis.NewClient(&redis.Options{Addr: m.Addr()}), 3)
	m.Close()
	assert.NotPanics(t, func() { sink.Info(context.Background(), "lost") })
}

type recorder struct{ info, update []string }

func (r *recorder) Info(ctx context.Context, msg string)   { r.info = append(r.info, msg) }
func (r *recorder) Update(ctx context.Context, msg string) { r.update = append(r.update, msg) }

func TestMultiAndLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf)
	defer logger.InitWithWriter(os.Stdout)

	rec := &recorder{}
	m := Multi{LogSink{}, rec}
	m.Info(context.Background(), "login")
	m.Update(context.Background(), "saved")

	assert.Equal(t, []string{"login"}, rec.info)
	assert.Equal(t, []string{"saved"}, rec.update)
	assert.Contains(t, buf.String(), "[activity:update] saved")
}
