package wallet

import (
	"github.com/AlecAivazis/survey/v2"
)

// Prompter asks user for missing key material.
type Prompter interface {
	Select(message string, options []string) (string, error)
	Input(message string) (string, error)
	Password(message string) (string, error)
}

// SurveyPrompter asks questions on terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Select(message string, options []string) (string, error) {
	answer := ""
	question := &survey.Select{
		Message: message,
		Options: options,
	}
	err := survey.AskOne(question, &answer)
	return answer, err
}

func (SurveyPrompter) Input(message string) (string, error) {
	answer := ""
	err := survey.AskOne(&survey.Input{Message: message}, &answer, survey.WithValidator(survey.Required))
	return answer, err
}

func (SurveyPrompter) Password(message string) (string, error) {
	answer := ""
	err := survey.AskOne(&survey.Password{Message: message}, &answer, survey.WithValidator(survey.Required))
	return answer, err
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message}, &ok)
	return ok, err
}
