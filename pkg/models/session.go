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

package models

// Session is the authorization handle obtained from Nebim for one sync
// cycle. It is passed explicitly through the cycle's call chain and is
// never cached across cycles; the token's validity window is not under
// our control.
type Session struct {
	ID      string
	BaseURL string
}

// Valid reports whether the session can authorize posts.
func (s *Session) Valid() bool {
	return s != nil && s.ID != "" && s.BaseURL != ""
}
