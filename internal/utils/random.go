package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

var commonFirstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
	"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
	"Thomas", "Sarah", "Christopher", "Karen", "Charles", "Lisa", "Daniel", "Nancy",
	"Matthew", "Sandra", "Anthony", "Betty", "Mark", "Ashley", "Donald", "Emily",
}
var commonLastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
	"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson",
}

func GenerateRandomFullName() string {
	first := commonFirstNames[rand.Intn(len(commonFirstNames))]
	last := commonLastNames[rand.Intn(len(commonLastNames))]
	return first + " " + last
}

var digits = "0123456789"

func GenerateUsernameFromFullName(fullName string) string {
	parts := strings.Fields(strings.ToLower(fullName))
	username := ""

	for _, part := range parts {
		length := rand.Intn(len(part)) + 1
		username += part[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(role domain.Role, password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomFullName()
	username := GenerateUsernameFromFullName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         role,
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var demoVenues = []string{
	"The Velvet Room", "Harbor Lights Arena", "Crown & Anchor", "The Warehouse Project",
	"Skyline Rooftop Bar", "Grand Pavilion", "The Foundry", "Riverside Convention Centre",
}
var demoLocations = []string{
	"12 King Street", "45 Dockside Way", "3 Market Square", "88 Mill Lane",
	"210 High Street", "7 Exhibition Road", "19 Ironworks Court", "1 Riverside Walk",
}

// GenerateRandomShift produces an open shift starting one to seven days out.
func GenerateRandomShift(managerID int64) *domain.Shift {
	i := rand.Intn(len(demoVenues))
	startsAt := time.Now().Add(time.Duration(rand.Intn(7*24)+24) * time.Hour).Truncate(time.Hour)

	return &domain.Shift{
		VenueName:       demoVenues[i],
		Location:        demoLocations[i],
		StartsAt:        startsAt,
		EndsAt:          startsAt.Add(time.Duration(rand.Intn(6)+4) * time.Hour),
		HourlyRateCents: int64(rand.Intn(2000) + 1500),
		ManagerID:       managerID,
	}
}
