package host

const platformSupported = true
