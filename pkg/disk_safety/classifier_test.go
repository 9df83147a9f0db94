package disk_safety

import (
	"context"
	"errors"
	"testing"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogOf(vols ...volumes.Descriptor) *volumes.Catalog {
	return volumes.NewCatalog(volumes.EnumeratorFunc(func(context.Context) ([]volumes.Descriptor, error) {
		return vols, nil
	}))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Classify(volumes.Descriptor{Identifier: "/media/usb"}))

	err := Classify(volumes.Descriptor{Identifier: "/", IsSystem: true})
	assert.ErrorIs(t, err, eos_err.ErrSystemVolumeProtected)
}

func TestCheckSafety(t *testing.T) {
	t.Parallel()

	catalog := catalogOf(
		volumes.Descriptor{Identifier: `C:\`, IsSystem: true},
		volumes.Descriptor{Identifier: `E:\`, Label: "USB"},
	)

	tests := []struct {
		name    string
		id      string
		safe    bool
		wantErr error
	}{
		{name: "removable volume is safe", id: `E:\`, safe: true},
		{name: "system volume is refused", id: `C:\`, wantErr: eos_err.ErrSystemVolumeProtected},
		{name: "absent volume is not found", id: `Z:\`, wantErr: eos_err.ErrVolumeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			safe, err := CheckSafety(testutil.NewTestContext(t), catalog, tt.id)
			assert.Equal(t, tt.safe, safe)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckSafetyEnumerationFailure(t *testing.T) {
	t.Parallel()

	catalog := volumes.NewCatalog(volumes.EnumeratorFunc(func(context.Context) ([]volumes.Descriptor, error) {
		return nil, errors.New("no mount table")
	}))

	safe, err := CheckSafety(testutil.NewTestContext(t), catalog, "/media/usb")
	assert.False(t, safe)
	assert.ErrorIs(t, err, eos_err.ErrEnumerationFailure)
}

func TestCheckSafetyIsIdempotent(t *testing.T) {
	t.Parallel()

	rc := testutil.NewTestContext(t)
	catalog := catalogOf(volumes.Descriptor{Identifier: "/media/usb"})

	for i := 0; i < 3; i++ {
		safe, err := CheckSafety(rc, catalog, "/media/usb")
		require.NoError(t, err)
		assert.True(t, safe)
	}
}
