/*
 * Copyright 2025 ilvi Software.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := c.Encrypt("pronet-api-password")
	require.NoError(t, err)
	assert.NotEqual(t, "pronet-api-password", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "pronet-api-password", plain)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	c, err := NewCipher("key")
	require.NoError(t, err)

	first, err := c.Encrypt("value")
	require.NoError(t, err)

	second, err := c.Encrypt("value")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptWithWrongKey(t *testing.T) {
	a, err := NewCipher("key-a")
	require.NoError(t, err)

	b, err := NewCipher("key-b")
	require.NoError(t, err)

	sealed, err := a.Encrypt("secret")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	require.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c, err := NewCipher("key")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 at all!!!")
	require.Error(t, err)

	_, err = c.Decrypt("AAAA")
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestNewCipherEmptyKey(t *testing.T) {
	_, err := NewCipher("")
	require.ErrorIs(t, err, ErrEmptyKey)
}
