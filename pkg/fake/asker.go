/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fake

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// Asker answers survey prompts from a canned message->answer map, so tests
// never touch a terminal.
type Asker struct {
	answers map[string]string
	// Asked records every prompt message in order.
	Asked []string
}

func NewAsker(answers map[string]string) *Asker {
	return &Asker{answers: answers}
}

func (a *Asker) Ask(p survey.Prompt, response interface{}) error {
	var message string
	switch v := p.(type) {
	case *survey.Input:
		message = v.Message
	case *survey.Password:
		message = v.Message
	case *survey.Confirm:
		message = v.Message
	default:
		return fmt.Errorf("fake asker: unsupported prompt type %T", p)
	}
	a.Asked = append(a.Asked, message)

	answer, ok := a.answers[message]
	if !ok {
		return fmt.Errorf("fake asker: no canned answer for prompt %q", message)
	}

	switch out := response.(type) {
	case *string:
		*out = answer
	case *bool:
		*out = answer == "yes" || answer == "true" || answer == "y"
	default:
		return fmt.Errorf("fake asker: unsupported response type %T", response)
	}
	return nil
}
