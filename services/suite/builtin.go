// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suite

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/AleutianAI/AleutianBench/services/harness"
)

// Reference artifacts shipped with the built-in definitions.
var (
	//go:embed assets/debounce.test.js
	debounceTest string

	//go:embed assets/debounce.ts
	debounceModule string

	//go:embed assets/helloWorld.test.tsx
	helloWorldTest string

	//go:embed assets/useToggle.test.tsx
	useToggleTest string

	//go:embed assets/useToggle.ts
	useToggleModule string

	//go:embed assets/userProfile.tsx
	userProfileModule string

	//go:embed assets/slugify.ts
	slugifyModule string

	//go:embed assets/userCard.test.tsx
	userCardTest string
)

const mockInterfaces = `
interface Profile {
  avatarUrl?: string;
  bio?: string;
}

interface User {
  id: string;
  email: string;
  registrationDate: Date;
  profile: Profile;
}
`

const angularUserCard = `
// Controller
function UserCardController() {
  var ctrl = this;
  ctrl.handleSelect = function() {
    ctrl.onSelect({ user: ctrl.user });
  };
}

// Component Definition
angular.module('myApp').component('userCard', {
  template: ` + "`" + `
    <div class="card" ng-click="$ctrl.handleSelect()">
      <img ng-src="{{$ctrl.user.avatar}}">
      <h3>{{$ctrl.user.name}}</h3>
    </div>
  ` + "`" + `,
  controller: UserCardController,
  bindings: {
    user: '<',
    onSelect: '&'
  }
});
`

const storybookButton = `
export const Button = ({ primary, label }) => {
  // ... component implementation
};
`

// Builtin returns the built-in benchmark definitions bound to h.
func Builtin(h Harness) []Definition {
	return []Definition{
		{
			ID:          "ts-mock-from-interface",
			Description: "Creates a mock data object from existing TypeScript interfaces.",
			Kind:        harness.KindPlain,
			Prompt: fmt.Sprintf(`
Given the following TypeScript interfaces, create a single mock object named 'mockUser' of type 'User'.
Fill the fields with realistic but fake data. The 'registrationDate' should be a new Date object.
Only output the 'mockUser' constant, with no other text or explanations.

Interfaces:
%s
`, mockInterfaces),
			Validate: structural(h, mockInterfaces, harness.KindPlain,
				"Mock object is structurally valid and compiles correctly.",
				mustMatch(`const\s+mockUser\s*:\s*User\s*=`, `Code does not declare "const mockUser: User".`),
				mustMatch(`\bid\s*:\s*['"`+"`"+`][^'"`+"`"+`]*['"`+"`"+`]`, `Mock is missing a string "id" property.`),
				mustMatch(`\bemail\s*:\s*['"`+"`"+`][^'"`+"`"+`]*@[^'"`+"`"+`]*['"`+"`"+`]`, `Mock is missing a valid-looking "email" property.`),
				mustMatch(`registrationDate\s*:\s*new\s+Date\(`, `Mock is missing "registrationDate: new Date()".`),
				mustMatch(`(?s)profile\s*:\s*\{.*avatarUrl\s*:\s*['"`+"`"+`]`, `Mock is missing a nested "profile" object with an avatarUrl.`),
			),
		},
		{
			ID:          "util-debounce",
			Description: "Implements a debounce utility and runs a predefined test suite against it.",
			Kind:        harness.KindPlain,
			Prompt: `
Write a TypeScript utility function named 'debounce'.
It takes a function and a delay in milliseconds and returns a new function that postpones
calling the original until 'delay' milliseconds have passed since the last call.
The original function must receive the arguments of the last call and the same 'this' value.
Export it as a named export: 'export function debounce(...)'.
Only output the code, with no other text or explanations.
`,
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedCode(ctx, code, debounceTest, harness.KindPlain)
			},
		},
		{
			ID:          "util-debounce-test",
			Description: "Writes a Jest test suite for a debounce utility.",
			Kind:        harness.KindPlain,
			Prompt: fmt.Sprintf(`
You are an expert in testing TypeScript code with Jest.
Write a comprehensive Jest test suite for the following 'debounce' function.
Use Jest fake timers. Cover the delay, the last-arguments behavior and 'this' preservation.
Import the function with: import { debounce } from './codeToTest';
Only output the test code, with no other text or explanations.

%s
`, debounceModule),
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedTests(ctx, code, debounceModule, harness.KindPlain)
			},
		},
		{
			ID:          "react-component",
			Description: "Creates a HelloWorld React component and runs a predefined test suite against it.",
			Kind:        harness.KindMarkup,
			Prompt: `
Create a React functional component in TypeScript named 'HelloWorld'.
It accepts an optional 'name' prop and renders "Hello, {name}!" inside an h1.
When 'name' is missing or empty it renders "Hello, World!".
Export the component as the default export.
Only output the TSX code, with no other text or explanations.
`,
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedCode(ctx, code, helloWorldTest, harness.KindMarkup)
			},
		},
		{
			ID:          "react-component-test",
			Description: "Creates a test set for a React component using react-testing-library.",
			Kind:        harness.KindMarkup,
			Prompt: fmt.Sprintf(`
You are an expert in testing React applications with React Testing Library.
Given the following React component, create a comprehensive Jest test suite for it.

Your tests must:
1.  Import 'render', 'screen', and 'fireEvent' from '@testing-library/react'.
2.  Test that the component renders correctly with initial props.
3.  Test the full user interaction flow: clicking "Edit", changing the input value, and clicking "Save".
4.  Verify that the 'onUpdate' callback is called with the correct new name after saving.
5.  Use 'jest.fn()' to mock the 'onUpdate' prop.
6.  Import the component from './codeToTest'.
7.  Do not add any text other than the pure test code.
8.  Do not use snapshots for this test.

Do NOT mock the 'react' module or any of its hooks like 'useState'. Test the component's behavior by interacting with the rendered DOM as a user would.

The component to test is:
%s
`, userProfileModule),
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedTests(ctx, code, userProfileModule, harness.KindMarkup)
			},
		},
		{
			ID:          "react-hook",
			Description: "Creates a useToggle React hook and runs a predefined test suite against it.",
			Kind:        harness.KindMarkup,
			Prompt: `
Create a custom React hook in TypeScript named 'useToggle'.
It takes an optional boolean initial value (default false) and returns a tuple
[value, toggle] where 'toggle' flips the value. The 'toggle' function must keep the
same reference across renders (use useCallback).
Export it as a named export: 'export function useToggle(...)'.
Only output the code, with no other text or explanations.
`,
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedCode(ctx, code, useToggleTest, harness.KindMarkup)
			},
		},
		{
			ID:          "react-hook-test",
			Description: "Writes a test suite for a useToggle React hook with renderHook.",
			Kind:        harness.KindMarkup,
			Prompt: fmt.Sprintf(`
You are an expert in testing React hooks.
Write a Jest test suite for the following 'useToggle' hook using 'renderHook' and 'act'
from '@testing-library/react'. Cover the initial value, toggling back and forth and the
stability of the toggle function reference.
Import the hook with: import { useToggle } from './codeToTest';
Only output the test code, with no other text or explanations.

%s
`, useToggleModule),
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedTests(ctx, code, useToggleModule, harness.KindMarkup)
			},
		},
		{
			ID:          "slugify-test",
			Description: "Writes a test suite for a slugify string utility.",
			Kind:        harness.KindPlain,
			Prompt: fmt.Sprintf(`
Write a Jest test suite for the following 'slugify' function.
Cover spaces, punctuation, repeated dashes, surrounding whitespace and non-string input.
Import the function with: import { slugify } from './codeToTest';
Only output the test code, with no other text or explanations.

%s
`, slugifyModule),
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedTests(ctx, code, slugifyModule, harness.KindPlain)
			},
		},
		{
			ID:          "migrate-angularjs-to-react",
			Description: "Translates an AngularJS component to a React component and validates its behavior.",
			Kind:        harness.KindMarkup,
			Prompt: fmt.Sprintf(`
You are an expert front-end developer. Your task is to migrate a component from AngularJS 1.x to modern React.
Convert the following AngularJS component into a single React functional component using TypeScript.

Requirements:
1.  The new component should be named 'UserCard'. It should be the main export.
2.  It should accept props 'user' and 'onSelect'. Define the necessary TypeScript interfaces for these props. The 'User' type has 'id', 'name', and 'avatar' fields.
3.  The component should render a 'div' that, when clicked, calls the 'onSelect' function with the entire 'user' object.
4.  Inside the div, it should render the user's name (e.g., in an 'h3' tag) and their avatar (in an 'img' tag).
5.  Return only the TSX code, with no other text or explanations.

Here is the original AngularJS component:
%s
`, angularUserCard),
			Validate: func(ctx context.Context, code string) *harness.Verdict {
				return h.ValidateGeneratedCode(ctx, code, userCardTest, harness.KindMarkup)
			},
		},
		{
			ID:          "storybook-story",
			Description: "Generates a Storybook story for a given React component.",
			Kind:        harness.KindMarkup,
			Prompt: fmt.Sprintf(`
Given this React component, create a Storybook v7+ CSF 3.0 story file for it.
Include a primary story and a secondary story.
%s
`, storybookButton),
			Validate: storybookValidator(h),
		},
	}
}

func storybookValidator(h Harness) ValidateFunc {
	typed := structural(h, "", harness.KindMarkup, "Valid Storybook file generated.",
		mustMatch(`import\s+(?:type\s+)?\{[^}]*\bMeta\b[^}]*\}\s*from\s*['"]@storybook/react(?:-[\w-]+)?['"]`,
			"Missing Storybook type imports."),
		mustMatch(`import\s+(?:type\s+)?\{[^}]*\bStoryObj\b[^}]*\}\s*from\s*['"]@storybook/react(?:-[\w-]+)?['"]`,
			"Missing Storybook type imports."),
	)
	return func(ctx context.Context, code string) *harness.Verdict {
		verdict := typed(ctx, code)
		if !verdict.Success {
			return verdict
		}
		if failed := requireExports(ctx, code, true, "default", "Primary", "Secondary"); failed != nil {
			return failed
		}
		return verdict
	}
}
