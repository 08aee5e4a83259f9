// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tagged block",
			in:   "Here you go:\n```typescript\nexport const a = 1;\n```\nEnjoy.",
			want: "export const a = 1;",
		},
		{
			name: "prefers source tag over earlier shell block",
			in:   "Install:\n```bash\nnpm i\n```\nCode:\n```tsx\nexport const B = () => <b/>;\n```",
			want: "export const B = () => <b/>;",
		},
		{
			name: "untagged block",
			in:   "```\nconst x = 2;\n```",
			want: "const x = 2;",
		},
		{
			name: "info string with attributes",
			in:   "```ts title=\"debounce.ts\"\nexport function debounce() {}\n```",
			want: "export function debounce() {}",
		},
		{
			name: "no fence returns trimmed text",
			in:   "\n  const y = 3;\n\n",
			want: "const y = 3;",
		},
		{
			name: "unterminated fence",
			in:   "Sure!\n```js\nmodule.exports = 1;\n",
			want: "module.exports = 1;",
		},
		{
			name: "reasoning removed",
			in:   "<think>\nI should use ```ts fences\n</think>\n```ts\nexport {};\n```",
			want: "export {};",
		},
		{
			name: "empty response",
			in:   "   ",
			want: "",
		},
		{
			name: "empty block only",
			in:   "```ts\n```",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.in))
		})
	}
}

func TestBlocks(t *testing.T) {
	in := "```ts\na\n```\ntext\n```JSX\nb\n```"
	assert.Equal(t, []Block{{Lang: "ts", Body: "a"}, {Lang: "jsx", Body: "b"}}, Blocks(in))
	assert.Empty(t, Blocks("no code here"))
}
