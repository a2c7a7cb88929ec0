/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"

	"travelcanvas/internal/canvas"
	"travelcanvas/internal/drag"
)

// Env is what the desktop window needs from the caller. Events must be the
// surface the board's drag controller was built with.
type Env struct {
	Board   *canvas.Board
	Events  *drag.Dispatcher
	DataDir string
	// Flush is called when the window closes, before Run returns.
	Flush func(ctx context.Context) error
}
