package s3store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	headErr error
	putErr  error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: map[string][]byte{}}
}

func (f *fakeObjectAPI) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

type fakePresigner struct {
	err  error
	ttls []time.Duration
}

func (f *fakePresigner) presignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.ttls = append(f.ttls, ttl)
	return "https://signed.example.com/" + key, nil
}

func newTestStore(api *fakeObjectAPI, p *fakePresigner) *Store {
	return &Store{client: api, presign: p, bucket: "test-bucket", linkTTL: defaultLinkTTL}
}

func TestStore_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the blob under the key", func(t *testing.T) {
		api := newFakeObjectAPI()
		store := newTestStore(api, &fakePresigner{})

		err := store.Upload(ctx, "abc-model.glb", strings.NewReader("glTF"), "model/gltf-binary")
		require.NoError(t, err)
		assert.Equal(t, []byte("glTF"), api.objects["abc-model.glb"])
	})

	t.Run("wraps upload failures with the key", func(t *testing.T) {
		api := newFakeObjectAPI()
		api.putErr = errors.New("s3 down")
		store := newTestStore(api, &fakePresigner{})

		err := store.Upload(ctx, "abc-model.glb", strings.NewReader("glTF"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "abc-model.glb")
	})
}

func TestStore_Presign(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a link for an existing object", func(t *testing.T) {
		api := newFakeObjectAPI()
		api.objects["model.glb"] = []byte("x")
		presigner := &fakePresigner{}
		store := newTestStore(api, presigner)

		url, err := store.Presign(ctx, "model.glb")
		require.NoError(t, err)
		assert.Equal(t, "https://signed.example.com/model.glb", url)
		assert.Equal(t, []time.Duration{defaultLinkTTL}, presigner.ttls)
	})

	t.Run("missing object", func(t *testing.T) {
		store := newTestStore(newFakeObjectAPI(), &fakePresigner{})

		_, err := store.Presign(ctx, "ghost.glb")
		assert.ErrorIs(t, err, ErrObjectMissing)
	})

	t.Run("empty key never reaches the store", func(t *testing.T) {
		_, err := newTestStore(newFakeObjectAPI(), &fakePresigner{}).Presign(ctx, "")
		assert.ErrorIs(t, err, ErrObjectMissing)
	})

	t.Run("other head errors are not conflated with missing", func(t *testing.T) {
		api := newFakeObjectAPI()
		api.headErr = errors.New("access denied")
		store := newTestStore(api, &fakePresigner{})

		_, err := store.Presign(ctx, "model.glb")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrObjectMissing)
	})

	t.Run("presign failure", func(t *testing.T) {
		api := newFakeObjectAPI()
		api.objects["model.glb"] = []byte("x")
		store := newTestStore(api, &fakePresigner{err: errors.New("signer broken")})

		_, err := store.Presign(ctx, "model.glb")
		assert.Error(t, err)
	})
}
