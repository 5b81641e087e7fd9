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

// Package prompt is the operator-input port. Everything the tool ever asks a
// human goes through an Asker, so automated runs and tests can answer with
// canned responses instead of a terminal.
package prompt

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// Asker asks a single question and stores the answer in response.
type Asker func(p survey.Prompt, response interface{}) error

// NewAsker returns an interactive Asker, or a non-interactive one that only
// accepts prompts carrying a usable default.
func NewAsker(noPrompt bool) Asker {
	if noPrompt {
		return askOneNoPrompt
	}
	return func(p survey.Prompt, response interface{}) error {
		return survey.AskOne(p, response)
	}
}

func askOneNoPrompt(p survey.Prompt, response interface{}) error {
	switch v := p.(type) {
	case *survey.Input:
		if v.Default == "" {
			return fmt.Errorf("no default response for prompt '%s'", v.Message)
		}
		*(response.(*string)) = v.Default
	case *survey.Password:
		return fmt.Errorf("cannot prompt for secret '%s' in no-prompt mode", v.Message)
	case *survey.Confirm:
		*(response.(*bool)) = v.Default
	default:
		return fmt.Errorf("don't know how to answer prompt of type %T without a terminal", p)
	}
	return nil
}

// AskString prompts for a plain string value.
func AskString(ask Asker, message, defaultValue string) (string, error) {
	var value string
	err := ask(&survey.Input{Message: message, Default: defaultValue}, &value)
	return value, err
}

// AskPassword prompts for a secret without echoing it.
func AskPassword(ask Asker, message string) (string, error) {
	var value string
	err := ask(&survey.Password{Message: message}, &value)
	return value, err
}

// AskConfirm prompts for a yes/no answer.
func AskConfirm(ask Asker, message string, defaultValue bool) (bool, error) {
	value := defaultValue
	err := ask(&survey.Confirm{Message: message, Default: defaultValue}, &value)
	return value, err
}
